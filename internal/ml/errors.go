// Package ml provides the winner classifier contract and its implementations.
package ml

import "errors"

var (
	// ErrMLServiceUnavailable indicates the model service is unreachable
	ErrMLServiceUnavailable = errors.New("ml service unavailable")

	// ErrInvalidDistribution indicates class/probability arrays are unusable
	ErrInvalidDistribution = errors.New("invalid prediction distribution")

	// ErrInvalidModel indicates a tree ensemble failed structural validation
	ErrInvalidModel = errors.New("invalid ensemble model")

	// ErrInvalidResponse indicates invalid response from ml service
	ErrInvalidResponse = errors.New("invalid response from ml service")
)
