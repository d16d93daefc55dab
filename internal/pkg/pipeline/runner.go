package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/internetarchive/parapipe/internal/pkg/log"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
)

// ExecFailureExitCode is the exit code recorded for a stage whose executable could not be started
const ExecFailureExitCode = 127

// StageState is the lifecycle state of a stage process: created -> running -> exited
type StageState string

const (
	StageCreated StageState = "created"
	StageRunning StageState = "running"
	StageExited  StageState = "exited"
)

// StageResult is the outcome of one stage process of an instance.
type StageResult struct {
	Index    int
	Name     string
	PID      int
	State    StageState
	ExitCode int
	Err      error
	Duration time.Duration
}

// Failed reports whether the stage did not exit cleanly.
func (r StageResult) Failed() bool {
	return r.ExitCode != 0 || r.Err != nil
}

// Instance is one running execution of a Spec: k stage processes wired by k+1 channels.
// The runner only keeps the instance boundaries open: the write end of the
// first channel (see Input) and the read end of the last one (see Output).
type Instance struct {
	spec     *Spec
	channels []Channel
	cmds     []*exec.Cmd
	results  []StageResult
	started  []time.Time
	logger   *log.FieldedLogger

	waitOnce sync.Once
}

type options struct {
	stderr   io.Writer
	logger   *log.FieldedLogger
	workerID int
}

// Option customizes how Start runs the stage processes.
type Option func(*options)

// WithStderr sets where the stage processes write their standard error, os.Stderr by default.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}

// WithLogger sets the logger used to report stage lifecycle events.
func WithLogger(logger *log.FieldedLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkerID tags the instance log records with the owning worker.
func WithWorkerID(id int) Option {
	return func(o *options) {
		o.workerID = id
	}
}

// Start allocates the channels of a new instance of spec and starts one
// process per stage. A stage whose executable can't be run doesn't abort its
// siblings: it is recorded as exited with ExecFailureExitCode and the next
// stage sees end-of-stream on its input. Any other start failure (file
// descriptors, processes or memory exhausted) is fatal to the instance: its
// channels are closed, the stages already started are reaped and the error
// wraps ErrResourceExhausted.
func Start(spec *Spec, opts ...Option) (*Instance, error) {
	o := &options{stderr: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewFieldedLogger(&log.Fields{
			"component": "pipeline.runner",
		})
	}
	logger := o.logger.With("worker_id", o.workerID)

	k := spec.Len()
	channels, err := allocateChannels(k + 1)
	if err != nil {
		return nil, err
	}
	stats.ChannelsAllocatedAdd(uint64(k + 1))

	inst := &Instance{
		spec:     spec,
		channels: channels,
		cmds:     make([]*exec.Cmd, k),
		results:  make([]StageResult, k),
		started:  make([]time.Time, k),
		logger:   logger,
	}

	for i := 0; i < k; i++ {
		if err := inst.startStage(i, o.stderr); err != nil {
			inst.abort()
			return nil, err
		}
	}

	// Keep only the boundaries, the children hold their own copies of the interior endpoints
	for i, ch := range channels {
		if i != 0 {
			closeFile(ch.W)
		}
		if i != k {
			closeFile(ch.R)
		}
	}

	return inst, nil
}

// startStage starts the i-th stage. It only returns an error when the
// instance can't go on, an exec failure is recorded in the stage result.
func (inst *Instance) startStage(i int, stderr io.Writer) error {
	stage := inst.spec.Stage(i)
	inst.results[i] = StageResult{
		Index: i,
		Name:  stage.Name(),
		State: StageCreated,
	}

	cmd := exec.Command(stage.Args[0], stage.Args[1:]...)
	cmd.Stdin = inst.channels[i].R
	cmd.Stdout = inst.channels[i+1].W
	cmd.Stderr = stderr

	inst.started[i] = time.Now()
	if err := cmd.Start(); err != nil {
		if stderr != nil {
			fmt.Fprintf(stderr, "parapipe: %s\n", err)
		}
		inst.results[i].State = StageExited
		stats.StagesFailedIncr()
		inst.logger.Error("stage failed to start", "stage", i, "name", stage.Name(), "err", err.Error())

		if !isExecFailure(err) {
			inst.results[i].Err = fmt.Errorf("%w: start stage %d (%s): %w", ErrResourceExhausted, i, stage.Name(), err)
			return inst.results[i].Err
		}

		inst.results[i].ExitCode = ExecFailureExitCode
		inst.results[i].Err = fmt.Errorf("%w: %s: %w", ErrExecFailure, stage.Name(), err)
		return nil
	}

	inst.cmds[i] = cmd
	inst.results[i].State = StageRunning
	inst.results[i].PID = cmd.Process.Pid
	stats.StagesStartedIncr()
	inst.logger.Debug("stage started", "stage", i, "name", stage.Name(), "pid", cmd.Process.Pid)
	return nil
}

// isExecFailure reports whether err means the executable itself can't be run,
// as opposed to the system lacking the resources to start it.
func isExecFailure(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.EACCES) ||
		errors.Is(err, syscall.ENOEXEC) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.EISDIR)
}

// abort tears down an instance that failed to start: every endpoint held by
// the parent is closed so the started stages see end-of-stream and can be reaped.
func (inst *Instance) abort() {
	closeChannels(inst.channels)
	inst.Wait()
}

// Input returns the write end of the first channel, fed to stage 0.
func (inst *Instance) Input() io.WriteCloser {
	return inst.channels[0].W
}

// Output returns the read end of the last channel, written by the last stage.
func (inst *Instance) Output() io.ReadCloser {
	return inst.channels[len(inst.channels)-1].R
}

// Wait waits for every started stage process to exit and returns one result per stage.
// A non-zero exit status is reported in the results, it is never returned as an error.
func (inst *Instance) Wait() []StageResult {
	inst.waitOnce.Do(func() {
		for i, cmd := range inst.cmds {
			if cmd == nil {
				continue
			}
			inst.reap(i, cmd)
		}
	})

	results := make([]StageResult, len(inst.results))
	copy(results, inst.results)
	return results
}

func (inst *Instance) reap(i int, cmd *exec.Cmd) {
	err := cmd.Wait()

	result := &inst.results[i]
	result.State = StageExited
	result.Duration = time.Since(inst.started[i])
	result.ExitCode = cmd.ProcessState.ExitCode()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		inst.logger.Debug("stage exited", "stage", i, "name", result.Name, "duration", result.Duration)
		return
	case errors.As(err, &exitErr):
		result.Err = fmt.Errorf("stage %d (%s): %w", i, result.Name, err)
	default:
		result.Err = fmt.Errorf("stage %d (%s): wait: %w", i, result.Name, err)
	}

	stats.StagesFailedIncr()
	inst.logger.Warn("stage exited with error", "stage", i, "name", result.Name, "exit_code", result.ExitCode, "err", err.Error())
}
