// Package ui prints the live stats of a run on the terminal.
package ui

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/gosuri/uitable"
	"github.com/internetarchive/parapipe/internal/pkg/stats"
)

// DefaultRefreshInterval is how often the live stats are redrawn
const DefaultRefreshInterval = 250 * time.Millisecond

// LiveStats redraws the stats table in place until stopped.
type LiveStats struct {
	job      string
	interval time.Duration
	writer   *uilive.Writer

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewLiveStats returns a LiveStats drawing on out, usually os.Stderr.
func NewLiveStats(out io.Writer, job string, interval time.Duration) *LiveStats {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	writer := uilive.New()
	writer.Out = out
	writer.RefreshInterval = interval

	return &LiveStats{
		job:      job,
		interval: interval,
		writer:   writer,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins drawing in a separate goroutine.
func (l *LiveStats) Start() {
	l.writer.Start()
	go l.loop()
}

// Stop draws the final state of the stats and returns once drawing stopped.
func (l *LiveStats) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
		<-l.done
		l.writer.Stop()
	})
}

func (l *LiveStats) loop() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.draw()
		select {
		case <-l.stop:
			l.draw()
			return
		case <-ticker.C:
		}
	}
}

func (l *LiveStats) draw() {
	fmt.Fprintln(l.writer, render(l.job, stats.GetMap()))
	l.writer.Flush()
}

func render(job string, values map[string]any) string {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table.AddRow("", "")
	table.AddRow("  - Job:", job)
	for _, k := range keys {
		table.AddRow("  - "+k+":", values[k])
	}
	table.AddRow("", "")
	table.AddRow("  - Goroutines:", runtime.NumGoroutine())
	table.AddRow("", "")

	return table.String()
}
