package source

import "errors"

var (
	// ErrUnknownPolicy is returned when an input distribution policy is not supported
	ErrUnknownPolicy = errors.New("unknown input policy")
)
