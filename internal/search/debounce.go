package search

import "time"

// Ticket identifies one scheduled debounce trigger. The zero Ticket is never issued.
type Ticket uint64

// Debouncer tracks the single pending search trigger. The host schedules
// the actual timer and hands the Ticket back to Fire when it expires;
// only the most recently scheduled, uncancelled ticket fires.
//
// A Debouncer is owned by one loop and is not safe for concurrent use.
type Debouncer struct {
	delay   time.Duration
	seq     uint64
	pending Ticket
}

// NewDebouncer creates a debouncer with the given quiet period
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay is the quiet period between the last change and the search
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending trigger with a new one
func (d *Debouncer) Schedule() Ticket {
	d.seq++
	d.pending = Ticket(d.seq)
	return d.pending
}

// Cancel drops the pending trigger, if any
func (d *Debouncer) Cancel() {
	d.pending = 0
}

// Pending reports whether a trigger is waiting to fire
func (d *Debouncer) Pending() bool {
	return d.pending != 0
}

// Fire consumes t and reports whether it is the live trigger
func (d *Debouncer) Fire(t Ticket) bool {
	if t == 0 || t != d.pending {
		return false
	}
	d.pending = 0
	return true
}
