package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/internetarchive/parapipe/internal/pkg/log"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
	"github.com/zeebo/xxh3"
)

// ReadError wraps a failure of the underlying input stream.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "read input: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// dispatchSource implements the policies that need a single goroutine
// reading the input and routing each line to per-worker queues.
type dispatchSource struct {
	policy  Policy
	reader  *bufio.Reader
	readers []*dispatchReader
	logger  *log.FieldedLogger

	released atomic.Int64
	next     int

	errMu sync.Mutex
	err   error

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

type dispatchReader struct {
	src         *dispatchSource
	lines       chan []byte
	released    chan struct{}
	releaseOnce sync.Once
}

func newDispatchSource(policy Policy, r io.Reader, workers int) *dispatchSource {
	s := &dispatchSource{
		policy:  policy,
		reader:  bufio.NewReader(r),
		readers: make([]*dispatchReader, workers),
		logger: log.NewFieldedLogger(&log.Fields{
			"component": "source.dispatcher",
			"policy":    string(policy),
		}),
		done: make(chan struct{}),
	}

	for i := range s.readers {
		s.readers[i] = &dispatchReader{
			src: s,
			// Unbuffered: a line is only handed over to a worker that asked for
			// it, so a released reader never strands queued lines
			lines:    make(chan []byte),
			released: make(chan struct{}),
		}
	}

	return s
}

func (s *dispatchSource) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		go s.run(ctx)
	})
	return nil
}

// Stop cancels the dispatcher. A dispatcher blocked on reading the input
// only notices it once the read returns.
func (s *dispatchSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *dispatchSource) Reader(id int) LineReader {
	return s.readers[id]
}

func (s *dispatchSource) Policy() Policy {
	return s.policy
}

func (s *dispatchSource) run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		for _, r := range s.readers {
			close(r.lines)
		}
	}()

	s.logger.Debug("dispatcher started", "workers", len(s.readers))

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := readLine(s.reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.setErr(&ReadError{Err: err})
				s.logger.Error("unable to read input", "err", err.Error())
			}
			return
		}

		if !s.route(ctx, line) {
			if ctx.Err() == nil {
				s.logger.Warn("every worker released its reader, stopping dispatch")
			}
			return
		}
	}
}

// route hands line to the reader(s) chosen by the policy. It returns false
// when dispatching must stop: ctx is done or no reader is left.
func (s *dispatchSource) route(ctx context.Context, line []byte) bool {
	n := len(s.readers)
	if int(s.released.Load()) == n {
		return false
	}

	switch s.policy {
	case PolicyBroadcast:
		for _, r := range s.readers {
			if r.isReleased() {
				continue
			}
			if !r.deliver(ctx, line) && ctx.Err() != nil {
				return false
			}
		}
		return true
	case PolicyHash:
		r := s.readers[xxh3.Hash(line)%uint64(n)]
		if r.isReleased() || !r.deliver(ctx, line) {
			if ctx.Err() != nil {
				return false
			}
			// The owner of this partition is gone
			stats.LinesDroppedIncr()
		}
		return true
	default:
		for range n {
			r := s.readers[s.next]
			s.next = (s.next + 1) % n
			if r.isReleased() {
				continue
			}
			if r.deliver(ctx, line) {
				return true
			}
			if ctx.Err() != nil {
				return false
			}
		}
		stats.LinesDroppedIncr()
		return int(s.released.Load()) != n
	}
}

func (s *dispatchSource) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.err = err
}

func (s *dispatchSource) getErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (r *dispatchReader) deliver(ctx context.Context, line []byte) bool {
	select {
	case r.lines <- line:
		return true
	case <-r.released:
		return false
	case <-ctx.Done():
		return false
	}
}

func (r *dispatchReader) isReleased() bool {
	select {
	case <-r.released:
		return true
	default:
		return false
	}
}

func (r *dispatchReader) ReadLine() ([]byte, error) {
	if r.isReleased() {
		return nil, io.EOF
	}

	line, ok := <-r.lines
	if !ok {
		if err := r.src.getErr(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return line, nil
}

func (r *dispatchReader) Release() {
	r.releaseOnce.Do(func() {
		close(r.released)
		r.src.released.Add(1)
	})
}
