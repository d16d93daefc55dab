// Package collector forwards the output of the last stage of a pipeline instance to the shared output.
package collector

import (
	"errors"
	"fmt"
	"io"

	"github.com/internetarchive/parapipe/internal/pkg/stats"
)

// DefaultBufferSize is the read buffer size used when none is given
const DefaultBufferSize = 32 * 1024

// Collect reads r until end of stream and writes each chunk to sink as soon
// as it is read. It closes r before returning and returns the number of bytes
// written to sink. If sink can Flush, it is flushed after every chunk.
func Collect(r io.ReadCloser, sink io.Writer, bufSize int) (total int64, err error) {
	defer r.Close()

	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	buf := make([]byte, bufSize)

	f, _ := sink.(flusher)

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			written, writeErr := sink.Write(buf[:n])
			total += int64(written)
			stats.BytesCollectedAdd(written)
			if writeErr != nil {
				return total, fmt.Errorf("write output: %w", writeErr)
			}
			if f != nil {
				if flushErr := f.Flush(); flushErr != nil {
					return total, fmt.Errorf("flush output: %w", flushErr)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("read last stage output: %w", readErr)
		}
	}
}
