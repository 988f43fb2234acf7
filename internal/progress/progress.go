// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress decouples progress reporting from control flow. Stages
// call an Observer; the CLI injects a terminal renderer and tests inject
// Nop so they run headless.
package progress

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Observer receives completion updates from a stage. A total of zero
// means the total is not yet known.
type Observer interface {
	OnProgress(completed, total int64)
	Done()
}

// Nop discards all updates.
type Nop struct{}

func (Nop) OnProgress(int64, int64) {}
func (Nop) Done()                   {}

// Tracker renders a terminal progress bar.
type Tracker struct {
	writer  progress.Writer
	tracker *progress.Tracker
}

// NewTracker starts rendering a bar labeled message to out.
func NewTracker(message string, out io.Writer) *Tracker {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetUpdateFrequency(250 * time.Millisecond)
	pw.SetTrackerLength(30)
	pw.Style().Visibility.ETA = false

	t := &progress.Tracker{Message: message}
	pw.AppendTracker(t)
	go pw.Render()

	return &Tracker{writer: pw, tracker: t}
}

func (tr *Tracker) OnProgress(completed, total int64) {
	if total > 0 {
		tr.tracker.UpdateTotal(total)
	}
	tr.tracker.SetValue(completed)
}

func (tr *Tracker) Done() {
	tr.tracker.MarkAsDone()
	// Let the renderer flush the final frame before stopping.
	time.Sleep(50 * time.Millisecond)
	tr.writer.Stop()
}
