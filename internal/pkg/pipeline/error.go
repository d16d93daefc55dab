package pipeline

import "errors"

var (
	// ErrMalformedSpec is returned when a pipeline command string can't be parsed into stages
	ErrMalformedSpec = errors.New("malformed pipeline spec")
	// ErrResourceExhausted is returned when the channels of a pipeline instance can't be allocated
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrExecFailure is reported by a stage whose executable could not be found or started
	ErrExecFailure = errors.New("stage exec failure")
)
