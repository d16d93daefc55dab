// Package feeder copies a worker's input lines into the first stage of its pipeline instance.
package feeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/internetarchive/parapipe/internal/pkg/log"
	"github.com/internetarchive/parapipe/internal/pkg/source"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
)

// Result counts what a Feed call did.
type Result struct {
	// Lines and Bytes count what was written to the first stage
	Lines int64
	Bytes int64
	// Dropped is the number of lines the first stage refused, at most 1
	Dropped int64
	// Stopped is true when the first stage stopped reading before the input ended
	Stopped bool
}

var logger = log.NewFieldedLogger(&log.Fields{
	"component": "feeder",
})

// Feed writes every line of lines to w until lines returns io.EOF, then closes w.
// Writes block while the first stage doesn't read. When the first stage is gone,
// Feed releases lines and returns without error: a dead stage is reported by
// the runner, not by the feeder. A cancelled ctx stops feeding early.
func Feed(ctx context.Context, lines source.LineReader, w io.WriteCloser) (res Result, err error) {
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil && !isBrokenPipe(closeErr) {
			err = fmt.Errorf("close first stage input: %w", closeErr)
		}
	}()

	for ctx.Err() == nil {
		line, readErr := lines.ReadLine()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return res, nil
			}
			lines.Release()
			return res, readErr
		}

		n, writeErr := w.Write(line)
		if writeErr != nil {
			lines.Release()
			if isBrokenPipe(writeErr) {
				res.Dropped++
				res.Stopped = true
				stats.LinesDroppedIncr()
				logger.Debug("first stage stopped reading", "lines", res.Lines, "err", writeErr.Error())
				return res, nil
			}
			return res, fmt.Errorf("write to first stage: %w", writeErr)
		}

		res.Lines++
		res.Bytes += int64(n)
		stats.LineFed(n)
	}

	// Cancelled, the source routes the remaining lines elsewhere or nowhere
	lines.Release()
	return res, nil
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
