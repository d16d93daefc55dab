package orchestrator

import "errors"

var (
	// ErrNoWorkers is returned when a run is requested with less than one worker
	ErrNoWorkers = errors.New("at least one worker is required")
	// ErrUnknownExitPolicy is returned when an exit policy is not supported
	ErrUnknownExitPolicy = errors.New("unknown exit policy")
	// ErrWorkerFailed is returned when a worker could not complete its lifecycle
	ErrWorkerFailed = errors.New("worker failed")
	// ErrStageFailed is returned by the stages exit policy when a stage did not exit cleanly
	ErrStageFailed = errors.New("stage failed")
)
