package features

import "errors"

var (
	// ErrArityMismatch indicates a vector does not match the classifier's feature schema
	ErrArityMismatch = errors.New("feature vector arity mismatch")

	// ErrInvalidStats indicates auxiliary stats failed validation
	ErrInvalidStats = errors.New("invalid auxiliary stats")
)
