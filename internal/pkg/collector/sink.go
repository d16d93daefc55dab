package collector

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// Sink serializes the writes of every collector onto the shared output.
// A Write call reaches the output in one piece and is flushed before the
// next one starts.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSink wraps w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.w.Write(p)
	if err != nil {
		return n, err
	}

	if f, ok := s.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return n, err
		}
	}

	return n, nil
}
