package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireExecutables(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %s", name, err)
		}
	}
}

// runInstance pushes input through a new instance of spec and returns what
// came out of the last stage along with the stage results.
func runInstance(t *testing.T, spec *Spec, input string, opts ...Option) (string, []StageResult) {
	t.Helper()

	inst, err := Start(spec, opts...)
	require.NoError(t, err)

	go func() {
		io.WriteString(inst.Input(), input)
		inst.Input().Close()
	}()

	output, err := io.ReadAll(inst.Output())
	require.NoError(t, err)
	inst.Output().Close()

	return string(output), inst.Wait()
}

func TestInstance_RoundTrip(t *testing.T) {
	requireExecutables(t, "cat")

	spec, err := Parse("cat", 0)
	require.NoError(t, err)

	output, results := runInstance(t, spec, "hello\nworld\n")
	assert.Equal(t, "hello\nworld\n", output)

	require.Len(t, results, 1)
	assert.Equal(t, StageExited, results[0].State)
	assert.Equal(t, 0, results[0].ExitCode)
	assert.NoError(t, results[0].Err)
}

func TestInstance_MultiStage(t *testing.T) {
	requireExecutables(t, "cat")

	spec, err := Parse("cat -> cat -> cat", 0)
	require.NoError(t, err)

	output, results := runInstance(t, spec, "a\nb\nc\n")
	assert.Equal(t, "a\nb\nc\n", output)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.Failed(), "stage %d", r.Index)
	}
}

func TestInstance_Transformation(t *testing.T) {
	requireExecutables(t, "tr", "tac")

	// uppercase filter, then reverse the order of the lines
	spec, err := Parse("tr a-z A-Z -> tac", 0)
	require.NoError(t, err)

	output, _ := runInstance(t, spec, "one\ntwo\nthree\n")
	assert.Equal(t, "THREE\nTWO\nONE\n", output)
}

func TestInstance_ChannelAndProcessCount(t *testing.T) {
	requireExecutables(t, "cat")

	for k := 1; k <= DefaultMaxStages; k++ {
		t.Run(fmt.Sprintf("%d stages", k), func(t *testing.T) {
			spec, err := Parse(strings.TrimSuffix(strings.Repeat("cat -> ", k), " -> "), 0)
			require.NoError(t, err)
			require.Equal(t, k, spec.Len())

			inst, err := Start(spec)
			require.NoError(t, err)

			assert.Len(t, inst.channels, k+1)

			started := 0
			for _, cmd := range inst.cmds {
				if cmd != nil && cmd.Process != nil {
					started++
				}
			}
			assert.Equal(t, k, started)

			inst.Input().Close()
			output, err := io.ReadAll(inst.Output())
			require.NoError(t, err)
			inst.Output().Close()
			assert.Empty(t, output)

			for _, r := range inst.Wait() {
				assert.Equal(t, StageExited, r.State)
				assert.Equal(t, 0, r.ExitCode)
			}
		})
	}
}

func TestInstance_MissingExecutable(t *testing.T) {
	spec, err := Parse("parapipe-definitely-not-an-executable --flag", 0)
	require.NoError(t, err)

	var stderr bytes.Buffer
	inst, err := Start(spec, WithStderr(&stderr))
	require.NoError(t, err)

	// The stage never started, nothing holds the write end of the output channel
	output, err := io.ReadAll(inst.Output())
	require.NoError(t, err)
	inst.Output().Close()
	assert.Empty(t, output)

	// Nothing reads stage 0's input anymore
	_, err = inst.Input().Write([]byte("lost\n"))
	assert.Error(t, err)
	inst.Input().Close()

	results := inst.Wait()
	require.Len(t, results, 1)
	assert.Equal(t, StageExited, results[0].State)
	assert.Equal(t, ExecFailureExitCode, results[0].ExitCode)
	assert.ErrorIs(t, results[0].Err, ErrExecFailure)
	assert.True(t, results[0].Failed())
	assert.Contains(t, stderr.String(), "parapipe:")
}

func TestInstance_BrokenMiddleStageCascadesEOF(t *testing.T) {
	requireExecutables(t, "cat")

	spec, err := Parse("cat -> parapipe-definitely-not-an-executable -> cat", 0)
	require.NoError(t, err)

	inst, err := Start(spec, WithStderr(io.Discard))
	require.NoError(t, err)

	output, err := io.ReadAll(inst.Output())
	require.NoError(t, err)
	inst.Output().Close()
	assert.Empty(t, output)

	inst.Input().Close()
	results := inst.Wait()

	require.Len(t, results, 3)
	assert.False(t, results[0].Failed())
	assert.ErrorIs(t, results[1].Err, ErrExecFailure)
	assert.False(t, results[2].Failed(), "the last stage only saw an empty input")
}

func TestInstance_NonZeroExitIsReported(t *testing.T) {
	requireExecutables(t, "false")

	spec, err := Parse("false", 0)
	require.NoError(t, err)

	output, results := runInstance(t, spec, "")
	assert.Empty(t, output)

	require.Len(t, results, 1)
	assert.Equal(t, StageExited, results[0].State)
	assert.NotEqual(t, 0, results[0].ExitCode)
	assert.Error(t, results[0].Err)
	assert.NotErrorIs(t, results[0].Err, ErrExecFailure)
}

func TestInstance_WaitIsIdempotent(t *testing.T) {
	requireExecutables(t, "cat")

	spec, err := Parse("cat", 0)
	require.NoError(t, err)

	inst, err := Start(spec)
	require.NoError(t, err)
	inst.Input().Close()
	io.Copy(io.Discard, inst.Output())
	inst.Output().Close()

	first := inst.Wait()
	second := inst.Wait()
	assert.Equal(t, first, second)
}
