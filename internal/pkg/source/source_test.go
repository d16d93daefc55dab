package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func makeInput(n int) (string, []string) {
	var b strings.Builder
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%03d\n", i)
		b.WriteString(lines[i])
	}
	return b.String(), lines
}

// drain reads every reader concurrently until io.EOF and returns what each one got.
func drain(t *testing.T, src Source, workers int) [][]string {
	t.Helper()

	got := make([][]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r := src.Reader(id)
			for {
				line, err := r.ReadLine()
				if err == io.EOF {
					return
				}
				if !assert.NoError(t, err) {
					return
				}
				got[id] = append(got[id], string(line))
			}
		}(i)
	}
	wg.Wait()
	return got
}

func flatten(got [][]string) []string {
	var all []string
	for _, lines := range got {
		all = append(all, lines...)
	}
	sort.Strings(all)
	return all
}

func TestParsePolicy(t *testing.T) {
	for _, p := range Policies {
		parsed, err := ParsePolicy(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	parsed, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRace, parsed)

	parsed, err = ParsePolicy(" Round-Robin ")
	require.NoError(t, err)
	assert.Equal(t, PolicyRoundRobin, parsed)

	_, err = ParsePolicy("random")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestNew_Rejects(t *testing.T) {
	_, err := New("random", strings.NewReader(""), 1)
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = New(PolicyRace, strings.NewReader(""), 0)
	assert.Error(t, err)
}

func TestPartitionPolicies(t *testing.T) {
	input, lines := makeInput(500)
	sorted := append([]string(nil), lines...)
	sort.Strings(sorted)

	for _, policy := range []Policy{PolicyRace, PolicyRoundRobin, PolicyHash} {
		t.Run(string(policy), func(t *testing.T) {
			src, err := New(policy, strings.NewReader(input), 4)
			require.NoError(t, err)
			require.NoError(t, src.Start(context.Background()))
			defer src.Stop()

			got := drain(t, src, 4)
			assert.Equal(t, sorted, flatten(got), "every line must go to exactly one worker")
		})
	}
}

func TestRoundRobin_Order(t *testing.T) {
	input, lines := makeInput(9)

	src, err := New(PolicyRoundRobin, strings.NewReader(input), 3)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	got := drain(t, src, 3)
	for id := 0; id < 3; id++ {
		assert.Equal(t, []string{lines[id], lines[id+3], lines[id+6]}, got[id])
	}
}

func TestRoundRobin_SkipsReleased(t *testing.T) {
	input, lines := makeInput(10)

	src, err := New(PolicyRoundRobin, strings.NewReader(input), 3)
	require.NoError(t, err)
	src.Reader(1).Release()
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	got := drain(t, src, 3)
	assert.Empty(t, got[1])
	assert.Len(t, got[0], 5)
	assert.Len(t, got[2], 5)

	sorted := append([]string(nil), lines...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, flatten(got))
}

func TestBroadcast(t *testing.T) {
	input, lines := makeInput(50)

	src, err := New(PolicyBroadcast, strings.NewReader(input), 3)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	got := drain(t, src, 3)
	for id := range got {
		assert.Equal(t, lines, got[id], "worker %d must see every line in order", id)
	}
}

func TestHash_Stable(t *testing.T) {
	input := "a\nb\nc\na\nb\nc\nd\n"

	src, err := New(PolicyHash, strings.NewReader(input), 4)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	got := drain(t, src, 4)
	for id, lines := range got {
		for _, line := range lines {
			assert.Equal(t, uint64(id), xxh3.HashString(line)%4, "line %q on the wrong worker", line)
		}
	}
	assert.Len(t, flatten(got), 7)
}

func TestFinalPartialLine(t *testing.T) {
	for _, policy := range Policies {
		t.Run(string(policy), func(t *testing.T) {
			src, err := New(policy, strings.NewReader("one\ntwo"), 1)
			require.NoError(t, err)
			require.NoError(t, src.Start(context.Background()))
			defer src.Stop()

			got := drain(t, src, 1)
			assert.Equal(t, []string{"one\n", "two"}, got[0])
		})
	}
}

func TestRace_Release(t *testing.T) {
	src, err := New(PolicyRace, strings.NewReader("one\ntwo\n"), 2)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	r0, r1 := src.Reader(0), src.Reader(1)
	r0.Release()

	_, err = r0.ReadLine()
	assert.Equal(t, io.EOF, err)

	line, err := r1.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(line))
}

func TestCancel(t *testing.T) {
	for _, policy := range Policies {
		t.Run(string(policy), func(t *testing.T) {
			input, _ := makeInput(1000)
			ctx, cancel := context.WithCancel(context.Background())

			src, err := New(policy, strings.NewReader(input), 1)
			require.NoError(t, err)
			require.NoError(t, src.Start(ctx))

			_, err = src.Reader(0).ReadLine()
			require.NoError(t, err)
			cancel()

			// A line already in flight may still come out, then the reader ends
			for {
				_, err = src.Reader(0).ReadLine()
				if err != nil {
					break
				}
			}
			assert.Equal(t, io.EOF, err)
			src.Stop()
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestReadError(t *testing.T) {
	for _, policy := range Policies {
		t.Run(string(policy), func(t *testing.T) {
			src, err := New(policy, failingReader{}, 1)
			require.NoError(t, err)
			require.NoError(t, src.Start(context.Background()))
			defer src.Stop()

			_, err = src.Reader(0).ReadLine()
			var readErr *ReadError
			assert.ErrorAs(t, err, &readErr)
		})
	}
}

func TestRoundRobin_ReleaseMidStreamKeepsLines(t *testing.T) {
	input, lines := makeInput(100)

	src, err := New(PolicyRoundRobin, strings.NewReader(input), 2)
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	// Worker 1 takes a few lines and leaves
	var early []string
	r1 := src.Reader(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer r1.Release()
		for i := 0; i < 3; i++ {
			line, err := r1.ReadLine()
			if !assert.NoError(t, err) {
				return
			}
			early = append(early, string(line))
		}
	}()

	var rest []string
	r0 := src.Reader(0)
	for {
		line, err := r0.ReadLine()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rest = append(rest, string(line))
	}
	<-done

	sorted := append([]string(nil), lines...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, flatten([][]string{early, rest}))
}
