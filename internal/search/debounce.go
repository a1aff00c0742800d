package search

import (
	"time"

	"github.com/objmap/mapcore/internal/dispatcher"
)

// DefaultDebounce is the pause after the last keystroke before a search runs.
const DefaultDebounce = 200 * time.Millisecond

type timer interface {
	Stop() bool
}

// Debouncer coalesces bursts of triggers into one call of fn, run on the
// loop once no trigger happened for the wait duration. Trigger and Cancel
// must be called from the loop.
type Debouncer struct {
	wait  time.Duration
	sched dispatcher.Scheduler
	fn    func()

	afterFunc func(time.Duration, func()) timer
	t         timer
	gen       uint64
}

// NewDebouncer creates a debouncer posting fn to sched.
func NewDebouncer(wait time.Duration, sched dispatcher.Scheduler, fn func()) *Debouncer {
	return &Debouncer{
		wait:  wait,
		sched: sched,
		fn:    fn,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Trigger schedules fn, replacing any pending schedule.
func (d *Debouncer) Trigger() {
	if d.t != nil {
		d.t.Stop()
	}
	d.gen++
	gen := d.gen
	d.t = d.afterFunc(d.wait, func() {
		d.sched.Post(func() {
			// a timer that fired while being replaced
			if gen != d.gen {
				return
			}
			d.t = nil
			d.fn()
		})
	})
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool { return d.t != nil }

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
	d.gen++
}
