package service

import "errors"

var (
	// ErrNoClassifier indicates the predictor was built without a classifier
	ErrNoClassifier = errors.New("classifier is required")

	// ErrUnsupportedArity indicates the classifier expects a schema the
	// feature builder cannot produce
	ErrUnsupportedArity = errors.New("classifier feature count is not a supported schema")

	// ErrClassifierFailed wraps a classifier call failure
	ErrClassifierFailed = errors.New("classifier failed")
)
