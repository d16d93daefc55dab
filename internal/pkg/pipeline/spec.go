// Package pipeline parses pipe-delimited command strings and runs them as
// chains of external processes connected by OS pipes.
package pipeline

import (
	"fmt"
	"strings"
)

const (
	// StageSeparator is the token splitting two stages in a pipeline command string
	StageSeparator = "->"
	// DefaultMaxStages is the sanity limit on the number of stages of a pipeline
	DefaultMaxStages = 32
)

// Stage is one external command of a pipeline: the executable name followed by its arguments.
type Stage struct {
	Args []string
}

// Name returns the executable of the stage.
func (s Stage) Name() string {
	return s.Args[0]
}

// String returns the stage as it would be written in a command string.
func (s Stage) String() string {
	return strings.Join(s.Args, " ")
}

// Spec is the parsed, immutable form of a pipeline command string.
// A single Spec is shared by every worker, it must never be modified after Parse.
type Spec struct {
	stages []Stage
}

// Parse splits s on StageSeparator and tokenizes every segment on whitespace.
// No shell quoting or escaping is performed. maxStages <= 0 means DefaultMaxStages.
func Parse(s string, maxStages int) (*Spec, error) {
	if maxStages <= 0 {
		maxStages = DefaultMaxStages
	}

	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty command", ErrMalformedSpec)
	}

	segments := strings.Split(s, StageSeparator)
	if len(segments) > maxStages {
		return nil, fmt.Errorf("%w: %d stages, the limit is %d", ErrMalformedSpec, len(segments), maxStages)
	}

	stages := make([]Stage, 0, len(segments))
	for i, segment := range segments {
		args := strings.Fields(segment)
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: stage %d is empty", ErrMalformedSpec, i)
		}
		stages = append(stages, Stage{Args: args})
	}

	return &Spec{stages: stages}, nil
}

// Len returns the number of stages.
func (s *Spec) Len() int {
	return len(s.stages)
}

// Stage returns a copy of the i-th stage.
func (s *Spec) Stage(i int) Stage {
	return Stage{Args: append([]string(nil), s.stages[i].Args...)}
}

// Stages returns a copy of the stage list.
func (s *Spec) Stages() []Stage {
	stages := make([]Stage, len(s.stages))
	for i, stage := range s.stages {
		stages[i] = Stage{Args: append([]string(nil), stage.Args...)}
	}
	return stages
}

// String returns the canonical form of the pipeline, e.g. "grep -v x -> sort".
func (s *Spec) String() string {
	parts := make([]string, len(s.stages))
	for i, stage := range s.stages {
		parts[i] = stage.String()
	}
	return strings.Join(parts, " "+StageSeparator+" ")
}
