package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/internetarchive/parapipe/internal/pkg/log"
)

// watchSignals cancels the run on the first SIGINT or SIGTERM so the feeders
// stop and the pipelines drain, a second signal forces the exit.
func watchSignals(cancel context.CancelFunc) (stop func()) {
	logger := log.NewFieldedLogger(&log.Fields{
		"component": "cmd.signalWatcher",
	})

	signalChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-done:
			return
		case <-signalChan:
			logger.Info("received shutdown signal, draining pipelines...")
			cancel()
		}

		select {
		case <-done:
		case <-signalChan:
			logger.Info("received second shutdown signal, forcing exit...")
			os.Exit(1)
		}
	}()

	return func() {
		signal.Stop(signalChan)
		close(done)
	}
}
