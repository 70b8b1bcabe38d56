package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/log/v2"
	"github.com/google/uuid"

	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

// UpdateKind tells the owning loop what an Update carries
type UpdateKind int

const (
	UpdateItem UpdateKind = iota
	UpdatePluginFailed
	UpdateDone
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateItem:
		return "item"
	case UpdatePluginFailed:
		return "plugin-failed"
	case UpdateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Update is posted by a worker to the owning loop. Updates whose Generation
// is not the executor's current generation are stale and must be ignored.
type Update struct {
	Generation uint64
	SearchID   string
	Kind       UpdateKind
	Query      string
	Plugin     string
	ID         string
	Item       domain.Item
	Err        error

	// Set on UpdateDone
	Results  int
	Failed   int
	Duration time.Duration
}

// Options tunes an Executor
type Options struct {
	// StaleGrace bounds how long a new worker waits for the worker it
	// superseded to exit before running plugin code anyway. Zero waits
	// without limit.
	StaleGrace time.Duration
	// MaxResultsPerPlugin stops a plugin once it has produced this many items. Zero means no limit.
	MaxResultsPerPlugin int
	// Buffer is the capacity of the updates channel
	Buffer int
	Bus    eventbus.EventBus
	Logger *log.Logger
}

// Executor runs at most one search worker at a time. Start and Cancel are
// called from the owning loop and never block on a worker.
type Executor struct {
	source plugins.Source
	opts   Options
	logger *log.Logger

	updates chan Update
	closed  chan struct{}

	mu         sync.Mutex
	generation uint64
	current    *worker
	filter     domain.PopulationFilter

	running atomic.Int32 // workers currently executing plugin code
}

type worker struct {
	id         string
	generation uint64
	query      string
	filter     domain.PopulationFilter
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewExecutor creates an executor searching the plugins of source
func NewExecutor(source plugins.Source, opts Options) *Executor {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	return &Executor{
		source:  source,
		opts:    opts,
		logger:  logging.OrDefault(opts.Logger).With("component", "search"),
		updates: make(chan Update, opts.Buffer),
		closed:  make(chan struct{}),
	}
}

// Updates is drained by the owning loop
func (e *Executor) Updates() <-chan Update {
	return e.updates
}

// SetFilter changes the population filter used by subsequent searches
func (e *Executor) SetFilter(filter domain.PopulationFilter) {
	e.mu.Lock()
	e.filter = filter
	e.mu.Unlock()
}

// Filter returns the population filter used for new searches
func (e *Executor) Filter() domain.PopulationFilter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Generation identifies the newest search. It changes on every Start and Cancel.
func (e *Executor) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Active reports whether the current generation still has a live worker
func (e *Executor) Active() bool {
	e.mu.Lock()
	w := e.current
	gen := e.generation
	e.mu.Unlock()
	if w == nil || w.generation != gen {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Running returns how many workers are executing plugin code right now
func (e *Executor) Running() int {
	return int(e.running.Load())
}

// Start request-cancels the current worker and spawns a new one for query.
// It returns the new generation.
func (e *Executor) Start(query string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var prevDone <-chan struct{}
	if prev := e.current; prev != nil {
		e.cancelLocked(prev)
		prevDone = prev.done
	}

	e.generation++
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		id:         uuid.NewString(),
		generation: e.generation,
		query:      query,
		filter:     e.filter,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	e.current = w

	e.logger.Debug("starting search", "generation", w.generation, "query", query, "filter", w.filter)
	e.publish(domain.SearchStartedEvent{SearchID: w.id, Generation: w.generation, Query: query, Filter: w.filter})

	go e.run(w, prevDone)
	return w.generation
}

// Cancel request-cancels the current worker without waiting for it. Any
// update it still posts carries a stale generation.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return
	}
	e.cancelLocked(e.current)
	e.generation++
}

func (e *Executor) cancelLocked(w *worker) {
	if w.ctx.Err() == nil {
		select {
		case <-w.done:
		default:
			e.logger.Debug("cancelling search", "generation", w.generation, "query", w.query)
			e.publish(domain.SearchCancelledEvent{SearchID: w.id, Generation: w.generation, Query: w.query})
		}
	}
	w.cancel()
}

// Wait blocks until the most recently started worker has exited or ctx is done
func (e *Executor) Wait(ctx context.Context) error {
	e.mu.Lock()
	w := e.current
	e.mu.Unlock()
	if w == nil {
		return nil
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the current worker and releases any worker blocked on sending
func (e *Executor) Close() {
	e.mu.Lock()
	select {
	case <-e.closed:
	default:
		close(e.closed)
	}
	if e.current != nil {
		e.current.cancel()
	}
	e.mu.Unlock()
}

func (e *Executor) publish(ev domain.DomainEvent) {
	if e.opts.Bus != nil {
		e.opts.Bus.Publish(ev)
	}
}

func (e *Executor) run(w *worker, prevDone <-chan struct{}) {
	defer close(w.done)
	defer w.cancel()

	e.awaitPrevious(w, prevDone)
	if w.ctx.Err() != nil {
		return
	}

	e.running.Add(1)
	defer e.running.Add(-1)

	start := time.Now()
	results, failed := 0, 0

	for _, p := range e.source.Plugins() {
		if w.ctx.Err() != nil {
			e.logger.Debug("search cancelled between plugins", "generation", w.generation, "next", p.Name())
			return
		}

		sink := &workerSink{exec: e, w: w, plugin: p.Name(), limit: e.opts.MaxResultsPerPlugin}
		err := plugins.SafePopulate(w.ctx, p, sink, w.filter, w.query)
		results += sink.count

		if w.ctx.Err() != nil {
			return
		}
		if err != nil && !plugins.IsStop(err) {
			failed++
			e.logger.Warn("plugin failed during search", "plugin", p.Name(), "query", w.query, "err", err)
			e.publish(domain.PluginFailedEvent{Plugin: p.Name(), Query: w.query, Err: err})
			if e.send(w, Update{Kind: UpdatePluginFailed, Plugin: p.Name(), Err: err}) != nil {
				return
			}
		}
	}

	elapsed := time.Since(start)
	e.logger.Debug("search completed", "generation", w.generation, "query", w.query, "results", results, "failed", failed, "took", elapsed)
	e.publish(domain.SearchCompletedEvent{
		SearchID:   w.id,
		Generation: w.generation,
		Query:      w.query,
		Results:    results,
		Failed:     failed,
		Duration:   elapsed,
	})
	_ = e.send(w, Update{Kind: UpdateDone, Results: results, Failed: failed, Duration: elapsed})
}

// awaitPrevious keeps plugin execution single-file: a worker waits for the
// one it superseded, for at most StaleGrace when that is set. It waits even
// when cancelled itself, so a closed done channel means every earlier
// worker has exited too.
func (e *Executor) awaitPrevious(w *worker, prevDone <-chan struct{}) {
	if prevDone == nil {
		return
	}

	var grace <-chan time.Time
	if e.opts.StaleGrace > 0 {
		t := time.NewTimer(e.opts.StaleGrace)
		defer t.Stop()
		grace = t.C
	}

	select {
	case <-prevDone:
	case <-grace:
		e.logger.Warn("previous search still running after grace period, starting anyway",
			"generation", w.generation, "grace", e.opts.StaleGrace)
	}
}

// send posts u for w unless w was cancelled or the executor closed
func (e *Executor) send(w *worker, u Update) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	u.Generation = w.generation
	u.SearchID = w.id
	u.Query = w.query

	select {
	case e.updates <- u:
		return nil
	case <-w.ctx.Done():
		return w.ctx.Err()
	case <-e.closed:
		return errExecutorClosed
	}
}

var errExecutorClosed = errors.New("executor closed")

// workerSink is the Sink handed to one plugin for one search
type workerSink struct {
	exec   *Executor
	w      *worker
	plugin string
	limit  int
	count  int
}

func (s *workerSink) Add(id string, item domain.Item) error {
	if s.limit > 0 && s.count >= s.limit {
		return fmt.Errorf("%w: %d results from %s", plugins.ErrStop, s.limit, s.plugin)
	}
	if item.ID == "" {
		item.ID = id
	}
	if item.Source == "" {
		item.Source = s.plugin
	}
	if err := s.exec.send(s.w, Update{Kind: UpdateItem, Plugin: s.plugin, ID: id, Item: item}); err != nil {
		return err
	}
	s.count++
	return nil
}
