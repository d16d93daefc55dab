package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/internetarchive/parapipe/internal/pkg/collector"
	"github.com/internetarchive/parapipe/internal/pkg/feeder"
	"github.com/internetarchive/parapipe/internal/pkg/log"
	"github.com/internetarchive/parapipe/internal/pkg/pipeline"
	"github.com/internetarchive/parapipe/internal/pkg/source"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
)

// startInstance starts the pipeline instance of a worker
var startInstance = pipeline.Start

type worker struct {
	id      int
	spec    *pipeline.Spec
	lines   source.LineReader
	sink    io.Writer
	stderr  io.Writer
	bufSize int
	logger  *log.FieldedLogger

	runnerLogger *log.FieldedLogger
}

// run drives one pipeline instance through its whole lifecycle: start the
// stages, feed and collect concurrently, then reap every stage.
func (w *worker) run(ctx context.Context) (report WorkerReport) {
	start := time.Now()
	report.ID = w.id

	stats.WorkersRunningIncr()
	defer stats.WorkersRunningDecr()

	defer func() {
		report.Duration = time.Since(start)
	}()

	inst, err := startInstance(w.spec,
		pipeline.WithStderr(w.stderr),
		pipeline.WithLogger(w.runnerLogger),
		pipeline.WithWorkerID(w.id),
	)
	if err != nil {
		w.lines.Release()
		w.logger.Error("unable to start pipeline instance", "err", err.Error())
		report.Err = err
		return report
	}

	var (
		wg         sync.WaitGroup
		feedErr    error
		collectErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Feed, feedErr = feeder.Feed(ctx, w.lines, inst.Input())
	}()
	go func() {
		defer wg.Done()
		report.CollectedBytes, collectErr = collector.Collect(inst.Output(), w.sink, w.bufSize)
	}()
	wg.Wait()

	report.Stages = inst.Wait()
	report.Err = errors.Join(feedErr, collectErr)

	w.logger.Debug("worker done",
		"lines", report.Feed.Lines,
		"collected_bytes", report.CollectedBytes,
		"duration", time.Since(start),
	)

	return report
}
