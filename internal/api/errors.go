package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/models"
	"github.com/yourusername/mlb-predictor/internal/news"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/service"
	"github.com/yourusername/mlb-predictor/internal/team"
)

var (
	// ErrFeatureDisabled indicates the route's backing component is not configured
	ErrFeatureDisabled = errors.New("feature not enabled")

	// ErrBadRequest indicates a malformed request body or parameter
	ErrBadRequest = errors.New("bad request")
)

// ErrorResponse is the JSON body for every non-2xx response.
type ErrorResponse struct {
	Error string             `json:"error"`
	Code  string             `json:"code"`
	View  *presentation.View `json:"view,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes and stable codes.
func statusFor(err error) (int, string) {
	var dsErr datasource.DataSourceError
	switch {
	case errors.Is(err, team.ErrUnknownTeam):
		return http.StatusBadRequest, "unknown_team"
	case errors.Is(err, features.ErrArityMismatch):
		return http.StatusBadRequest, "arity_mismatch"
	case errors.Is(err, features.ErrInvalidStats):
		return http.StatusBadRequest, "invalid_stats"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, datasource.ErrTeamNotInDirectory), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, news.ErrNoSubreddit), errors.Is(err, news.ErrNoEntries), errors.Is(err, datasource.ErrNoRecentGames):
		return http.StatusNotFound, "no_data"
	case errors.Is(err, ErrFeatureDisabled):
		return http.StatusNotImplemented, "disabled"
	case errors.Is(err, ml.ErrMLServiceUnavailable), errors.Is(err, datasource.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, service.ErrClassifierFailed), errors.As(err, &dsErr):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, label := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: label}
	if errors.Is(err, team.ErrUnknownTeam) {
		view := presentation.RenderUnknownTeam(err)
		resp.View = &view
	}
	writeJSON(w, code, resp)
}
