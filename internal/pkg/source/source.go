// Package source distributes the lines of one shared input stream to the
// feeders of the running workers, following an input distribution policy.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Policy decides which worker receives each input line.
type Policy string

const (
	// PolicyRace lets every worker read from the same locked reader, the first reader wins each line
	PolicyRace Policy = "race"
	// PolicyRoundRobin deals lines to the workers in turn
	PolicyRoundRobin Policy = "round-robin"
	// PolicyBroadcast sends every line to every worker
	PolicyBroadcast Policy = "broadcast"
	// PolicyHash sends a line to the worker selected by the hash of its content
	PolicyHash Policy = "hash"
)

// Policies lists the supported policies, the first one is the default.
var Policies = []Policy{PolicyRace, PolicyRoundRobin, PolicyBroadcast, PolicyHash}

// ParsePolicy returns the Policy named s.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PolicyRace, nil
	}
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// LineReader is the per-worker view of a Source.
type LineReader interface {
	// ReadLine returns the next line including its trailing newline, or a
	// final line without one. It returns io.EOF once the worker gets no more lines.
	ReadLine() ([]byte, error)
	// Release tells the source this worker won't read anymore.
	Release()
}

// Source is an input stream shared by a fixed number of workers.
type Source interface {
	// Start begins distributing lines. Cancelling ctx ends every reader with io.EOF.
	Start(ctx context.Context) error
	// Stop ends the distribution.
	Stop()
	// Reader returns the LineReader of the worker id, 0 <= id < workers.
	Reader(id int) LineReader
	// Policy returns the distribution policy of the source.
	Policy() Policy
}

// New returns a Source reading r for the given number of workers.
func New(policy Policy, r io.Reader, workers int) (Source, error) {
	if workers < 1 {
		return nil, fmt.Errorf("source needs at least one worker, got %d", workers)
	}

	switch policy {
	case PolicyRace, "":
		return newSharedSource(r), nil
	case PolicyRoundRobin, PolicyBroadcast, PolicyHash:
		return newDispatchSource(policy, r, workers), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}

// readLine reads up to and including the next newline. A final line without
// newline is returned on its own, the following call returns io.EOF.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return nil, err
	}
	return line, nil
}
