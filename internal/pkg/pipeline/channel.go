package pipeline

import (
	"fmt"
	"os"
)

// Channel is a unidirectional byte conduit between two ends of a pipeline.
// Both endpoints are close-on-exec: a stage process only ever receives the
// endpoints explicitly handed to it.
type Channel struct {
	R *os.File
	W *os.File
}

func newChannel() (Channel, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return Channel{}, err
	}
	return Channel{R: r, W: w}, nil
}

// allocateChannels opens n channels. On failure, the already opened ones are closed.
func allocateChannels(n int) ([]Channel, error) {
	channels := make([]Channel, 0, n)
	for i := 0; i < n; i++ {
		ch, err := newChannel()
		if err != nil {
			closeChannels(channels)
			return nil, fmt.Errorf("%w: channel %d of %d: %s", ErrResourceExhausted, i, n, err)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func closeChannels(channels []Channel) {
	for _, ch := range channels {
		closeFile(ch.R)
		closeFile(ch.W)
	}
}

func closeFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}
