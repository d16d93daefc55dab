package stats

import "errors"

var (
	// ErrStatsAlreadyInitialized is returned when the stats package is already initialized
	ErrStatsAlreadyInitialized = errors.New("stats already initialized")
)
