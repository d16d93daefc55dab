package config

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration value can't be used to start a run
	ErrInvalidConfig = errors.New("invalid configuration")
)
