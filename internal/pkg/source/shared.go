package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// sharedSource implements PolicyRace: one buffered reader behind a mutex,
// each line is handed to whichever worker asks first.
type sharedSource struct {
	mu     sync.Mutex
	reader *bufio.Reader
	err    error

	ctx     context.Context
	stopped atomic.Bool
}

type sharedReader struct {
	src      *sharedSource
	released atomic.Bool
}

func newSharedSource(r io.Reader) *sharedSource {
	return &sharedSource{
		reader: bufio.NewReader(r),
		ctx:    context.Background(),
	}
}

func (s *sharedSource) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	return nil
}

func (s *sharedSource) Stop() {
	s.stopped.Store(true)
}

func (s *sharedSource) Reader(int) LineReader {
	return &sharedReader{src: s}
}

func (s *sharedSource) Policy() Policy {
	return PolicyRace
}

func (s *sharedSource) readLine() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped.Load() || s.ctx.Err() != nil {
		return nil, io.EOF
	}

	// Once the stream failed or ended, every worker gets the same answer
	if s.err != nil {
		return nil, s.err
	}

	line, err := readLine(s.reader)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			err = &ReadError{Err: err}
		}
		s.err = err
		return nil, err
	}
	return line, nil
}

func (r *sharedReader) ReadLine() ([]byte, error) {
	if r.released.Load() {
		return nil, io.EOF
	}
	return r.src.readLine()
}

func (r *sharedReader) Release() {
	r.released.Store(true)
}
