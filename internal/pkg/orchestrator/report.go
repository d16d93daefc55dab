package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/internetarchive/parapipe/internal/pkg/feeder"
	"github.com/internetarchive/parapipe/internal/pkg/pipeline"
)

// WorkerReport is the outcome of one worker.
type WorkerReport struct {
	ID             int
	Feed           feeder.Result
	CollectedBytes int64
	Stages         []pipeline.StageResult
	// Err is set when the worker could not complete its lifecycle
	Err      error
	Duration time.Duration
}

// Report is the outcome of a run, one WorkerReport per worker in ID order.
type Report struct {
	Workers  []WorkerReport
	Duration time.Duration
}

// Err returns the error of the run under policy, nil on success.
func (r *Report) Err(policy ExitPolicy) error {
	if policy == "" {
		policy = ExitOrchestration
	}
	if policy != ExitOrchestration && policy != ExitStages {
		return fmt.Errorf("%w: %q", ErrUnknownExitPolicy, policy)
	}

	var errs []error
	for _, w := range r.Workers {
		if w.Err != nil {
			errs = append(errs, fmt.Errorf("%w: worker %d: %w", ErrWorkerFailed, w.ID, w.Err))
			continue
		}

		if policy != ExitStages {
			continue
		}

		for _, stage := range w.Stages {
			if stage.Failed() {
				errs = append(errs, fmt.Errorf("%w: worker %d: stage %d (%s) exited with code %d",
					ErrStageFailed, w.ID, stage.Index, stage.Name, stage.ExitCode))
			}
		}
	}

	return errors.Join(errs...)
}

// FailedStages returns the number of stages that did not exit cleanly.
func (r *Report) FailedStages() (count int) {
	for _, w := range r.Workers {
		for _, stage := range w.Stages {
			if stage.Failed() {
				count++
			}
		}
	}
	return count
}

// Totals sums the fed lines and bytes and the collected bytes of every worker.
func (r *Report) Totals() (lines, fedBytes, collectedBytes int64) {
	for _, w := range r.Workers {
		lines += w.Feed.Lines
		fedBytes += w.Feed.Bytes
		collectedBytes += w.CollectedBytes
	}
	return lines, fedBytes, collectedBytes
}
