package search

import (
	"time"

	"charm.land/log/v2"

	"softcenter/internal/domain"
	"softcenter/internal/logging"
)

// ResultsSink is the result display. It is owned by the loop that drives
// the Coordinator and is only touched from that loop.
type ResultsSink interface {
	Add(id string, item domain.Item)
	Clear()
}

// Schedule asks the host loop to call Fire(Ticket) after Delay
type Schedule struct {
	Ticket Ticket
	Delay  time.Duration
}

// Coordinator ties the search box text, the debouncer, the executor and the
// result display together. Every method runs on the owning loop.
type Coordinator struct {
	debouncer *Debouncer
	executor  *Executor
	sink      ResultsSink
	logger    *log.Logger

	text       string
	generation uint64 // generation whose updates are applied to the sink
	searching  bool
	lastDone   *Update
	failures   []Update
}

// NewCoordinator creates a coordinator applying results to sink
func NewCoordinator(executor *Executor, sink ResultsSink, delay time.Duration, logger *log.Logger) *Coordinator {
	return &Coordinator{
		debouncer: NewDebouncer(delay),
		executor:  executor,
		sink:      sink,
		logger:    logging.OrDefault(logger).With("component", "coordinator"),
	}
}

// TextChanged handles a search box edit. For non-empty text it returns the
// trigger the host must schedule; empty text clears results and cancels any
// search before returning.
func (c *Coordinator) TextChanged(text string) (Schedule, bool) {
	c.text = domain.NormalizeQuery(text)
	c.debouncer.Cancel()

	if c.text == "" {
		c.reset()
		return Schedule{}, false
	}

	return Schedule{Ticket: c.debouncer.Schedule(), Delay: c.debouncer.Delay()}, true
}

// Fire handles an expired debounce trigger. It starts a search for the
// current text when t is still the live trigger and returns the new
// generation.
func (c *Coordinator) Fire(t Ticket) (uint64, bool) {
	if !c.debouncer.Fire(t) {
		return 0, false
	}

	c.reset()

	// The field may have been cleared after the trigger was scheduled.
	if c.text == "" {
		return 0, false
	}

	return c.start(), true
}

// Refresh re-runs the search for the current text right away, e.g. after the
// population filter changed.
func (c *Coordinator) Refresh() (uint64, bool) {
	c.debouncer.Cancel()
	c.reset()
	if c.text == "" {
		return 0, false
	}
	return c.start(), true
}

func (c *Coordinator) start() uint64 {
	c.generation = c.executor.Start(c.text)
	c.searching = true
	c.logger.Debug("search started", "generation", c.generation, "query", c.text)
	return c.generation
}

// Clear empties the search text, the results and any running search
func (c *Coordinator) Clear() {
	c.text = ""
	c.debouncer.Cancel()
	c.reset()
}

func (c *Coordinator) reset() {
	c.executor.Cancel()
	c.generation = 0
	c.searching = false
	c.lastDone = nil
	c.failures = nil
	c.sink.Clear()
}

// Apply applies a worker update to the sink. Updates from superseded
// searches are dropped and Apply returns false for them.
func (c *Coordinator) Apply(u Update) bool {
	if c.generation == 0 || u.Generation != c.generation {
		return false
	}

	switch u.Kind {
	case UpdateItem:
		c.sink.Add(u.ID, u.Item)
	case UpdatePluginFailed:
		c.failures = append(c.failures, u)
	case UpdateDone:
		c.searching = false
		done := u
		c.lastDone = &done
	}
	return true
}

// Text is the current normalized search text
func (c *Coordinator) Text() string {
	return c.text
}

// Searching reports whether the current search has not finished yet
func (c *Coordinator) Searching() bool {
	return c.searching
}

// Pending reports whether a debounce trigger is outstanding
func (c *Coordinator) Pending() bool {
	return c.debouncer.Pending()
}

// Generation is the search whose results are on display, zero for none
func (c *Coordinator) Generation() uint64 {
	return c.generation
}

// LastDone returns the completion update of the displayed search, if any
func (c *Coordinator) LastDone() (Update, bool) {
	if c.lastDone == nil {
		return Update{}, false
	}
	return *c.lastDone, true
}

// Failures returns the plugin failures of the displayed search
func (c *Coordinator) Failures() []Update {
	out := make([]Update, len(c.failures))
	copy(out, c.failures)
	return out
}
