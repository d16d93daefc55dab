// Package orchestrator runs N concurrent instances of a pipeline over a shared input and output.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/internetarchive/parapipe/internal/pkg/collector"
	"github.com/internetarchive/parapipe/internal/pkg/log"
	"github.com/internetarchive/parapipe/internal/pkg/pipeline"
	"github.com/internetarchive/parapipe/internal/pkg/source"
	"github.com/remeh/sizedwaitgroup"
)

// Options configures a run.
type Options struct {
	// Workers is the number of pipeline instances, at least 1
	Workers int
	// Input is the shared input stream, read line by line
	Input io.Reader
	// Output is the shared output stream
	Output io.Writer
	// Policy distributes the input lines, source.PolicyRace by default
	Policy source.Policy
	// StageStderr receives the standard error of every stage, os.Stderr by default
	StageStderr io.Writer
	// BufferSize is the collector read buffer size, collector.DefaultBufferSize by default
	BufferSize int
}

// Run starts opts.Workers workers, each running its own instance of spec,
// and blocks until all of them completed. A worker failure never stops the
// other workers, apply an exit policy to the report with Report.Err.
func Run(ctx context.Context, spec *pipeline.Spec, opts Options) (*Report, error) {
	logger := log.NewFieldedLogger(&log.Fields{
		"component": "orchestrator",
	})

	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, opts.Workers)
	}
	if spec == nil || spec.Len() == 0 {
		return nil, fmt.Errorf("%w: empty pipeline", pipeline.ErrMalformedSpec)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.StageStderr == nil {
		opts.StageStderr = os.Stderr
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = collector.DefaultBufferSize
	}

	src, err := source.New(opts.Policy, opts.Input, opts.Workers)
	if err != nil {
		return nil, err
	}
	if err := src.Start(ctx); err != nil {
		return nil, err
	}
	defer src.Stop()

	sink := collector.NewSink(opts.Output)

	logger.Info("starting workers",
		"workers", opts.Workers,
		"pipeline", spec.String(),
		"policy", string(src.Policy()),
	)

	start := time.Now()
	report := &Report{
		Workers: make([]WorkerReport, opts.Workers),
	}

	runnerLogger := log.NewFieldedLogger(&log.Fields{
		"component": "orchestrator.runner",
	})

	wg := sizedwaitgroup.New(opts.Workers)
	for id := 0; id < opts.Workers; id++ {
		w := &worker{
			id:      id,
			spec:    spec,
			lines:   src.Reader(id),
			sink:    sink,
			stderr:  opts.StageStderr,
			bufSize: opts.BufferSize,
			logger: log.NewFieldedLogger(&log.Fields{
				"component": "orchestrator.worker",
			}).With("worker_id", id),
			runnerLogger: runnerLogger,
		}

		wg.Add()
		go func() {
			defer wg.Done()
			report.Workers[w.id] = w.run(ctx)
		}()
	}
	wg.Wait()

	report.Duration = time.Since(start)

	lines, fedBytes, collectedBytes := report.Totals()
	logger.Info("all workers completed",
		"duration", report.Duration,
		"lines", lines,
		"fed", humanize.Bytes(uint64(fedBytes)),
		"collected", humanize.Bytes(uint64(collectedBytes)),
		"failed_stages", report.FailedStages(),
	)

	return report, nil
}
