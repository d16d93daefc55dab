package orchestrator

import (
	"fmt"
	"strings"
)

// ExitPolicy decides how the stage results of a run turn into its outcome.
type ExitPolicy string

const (
	// ExitOrchestration succeeds once every worker completed its lifecycle, stage exit codes are only reported
	ExitOrchestration ExitPolicy = "orchestration"
	// ExitStages also fails when any stage exited non-zero or could not be started
	ExitStages ExitPolicy = "stages"
)

// ParseExitPolicy returns the ExitPolicy named s, an empty s selects ExitOrchestration.
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch p := ExitPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ExitOrchestration, nil
	case ExitOrchestration, ExitStages:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownExitPolicy, s)
	}
}
