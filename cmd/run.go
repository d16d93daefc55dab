package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/internetarchive/parapipe/internal/pkg/api"
	"github.com/internetarchive/parapipe/internal/pkg/log"
	"github.com/internetarchive/parapipe/internal/pkg/orchestrator"
	"github.com/internetarchive/parapipe/internal/pkg/pipeline"
	"github.com/internetarchive/parapipe/internal/pkg/source"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
	"github.com/internetarchive/parapipe/internal/pkg/ui"
	"github.com/spf13/afero"
)

// apiStop shuts the API server down
var apiStop = api.Stop

func stopAPI(logger *log.FieldedLogger, timeout time.Duration) {
	if err := apiStop(timeout); err != nil {
		logger.Error("error stopping API", "err", err.Error())
	}
}

// run executes the configured pipeline and returns the error of the run
// under the configured exit policy.
func run(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Validate everything before any worker starts
	spec, err := pipeline.Parse(cfg.Command, cfg.MaxStages)
	if err != nil {
		return err
	}

	inputPolicy, err := source.ParsePolicy(cfg.InputPolicy)
	if err != nil {
		return err
	}

	exitPolicy, err := orchestrator.ParseExitPolicy(cfg.ExitPolicy)
	if err != nil {
		return err
	}

	if err := log.Start(); err != nil {
		return fmt.Errorf("error starting logger: %w", err)
	}
	defer log.Stop()

	logger := log.NewFieldedLogger(&log.Fields{
		"component": "cmd.run",
	})

	if err := stats.Init(); err != nil {
		logger.Error("error initializing stats", "err", err.Error())
		return err
	}

	if cfg.API {
		if err := api.Start(); err != nil {
			logger.Error("error starting API", "err", err.Error())
			return err
		}
		defer stopAPI(logger, 5*time.Second)
	}

	fs := afero.NewOsFs()

	input, err := source.Open(fs, cfg.InputFile)
	if err != nil {
		logger.Error("unable to open input", "input", cfg.InputFile, "err", err.Error())
		return err
	}
	defer input.Close()

	output, closeOutput, err := openOutput(fs, cfg.OutputFile, cfg.CollectorBufferSize)
	if err != nil {
		logger.Error("unable to open output", "output", cfg.OutputFile, "err", err.Error())
		return err
	}
	defer func() {
		if closeErr := closeOutput(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if cfg.LiveStats {
		live := ui.NewLiveStats(os.Stderr, cfg.Job, ui.DefaultRefreshInterval)
		live.Start()
		defer live.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatching := watchSignals(cancel)
	defer stopWatching()

	report, err := orchestrator.Run(ctx, spec, orchestrator.Options{
		Workers:     cfg.WorkersCount,
		Input:       input,
		Output:      output,
		Policy:      inputPolicy,
		StageStderr: os.Stderr,
		BufferSize:  cfg.CollectorBufferSize,
	})
	if err != nil {
		logger.Error("unable to run pipelines", "err", err.Error())
		return err
	}

	for _, w := range report.Workers {
		for _, stage := range w.Stages {
			if stage.Failed() {
				logger.Warn("stage did not exit cleanly",
					"worker_id", w.ID,
					"stage", stage.Index,
					"name", stage.Name,
					"exit_code", stage.ExitCode,
				)
			}
		}
	}

	return report.Err(exitPolicy)
}

// openOutput returns the shared output and the function to close it.
// A file output is buffered, the collectors flush it after every chunk.
func openOutput(fs afero.Fs, path string, bufSize int) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}

	w := bufio.NewWriterSize(f, bufSize)
	return w, func() error {
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}
