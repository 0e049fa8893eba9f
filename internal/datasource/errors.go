package datasource

import (
	"errors"
	"fmt"
)

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

var (
	// ErrCircuitOpen indicates the HTTP circuit breaker is rejecting requests
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrNoRecentGames indicates a team has no final games to average over
	ErrNoRecentGames = errors.New("no recent final games")

	// ErrTeamNotInDirectory indicates an abbreviation or MLB id is not a known franchise
	ErrTeamNotInDirectory = errors.New("team not in directory")
)

// DataSourceError represents errors from external data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Source, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Code, e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
