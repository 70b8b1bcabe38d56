package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"softcenter/internal/domain"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

// recordingPlugin emits one item per entry in names and records every query it sees
type recordingPlugin struct {
	name  string
	names []string
	delay time.Duration

	mu      sync.Mutex
	queries []string
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) Populate(ctx context.Context, sink plugins.Sink, _ domain.PopulationFilter, query string) error {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.mu.Unlock()

	for _, n := range p.names {
		if p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := sink.Add(n, domain.Item{Name: n}); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPlugin) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.queries))
	copy(out, p.queries)
	return out
}

// slowPlugin produces results forever, one per step, polling ctx every step
type slowPlugin struct {
	stepsAfterCancel atomic.Int32
	steps            atomic.Int32
	exited           atomic.Bool
}

func (p *slowPlugin) Name() string { return "slow" }

func (p *slowPlugin) Populate(ctx context.Context, sink plugins.Sink, _ domain.PopulationFilter, _ string) error {
	defer p.exited.Store(true)
	for i := 0; ; i++ {
		p.steps.Add(1)
		if ctx.Err() != nil {
			p.stepsAfterCancel.Add(1)
			return ctx.Err()
		}
		if err := sink.Add("pkg", domain.Item{Name: "pkg"}); err != nil {
			p.stepsAfterCancel.Add(1)
			return err
		}
		time.Sleep(time.Millisecond)
	}
}

// concurrencyPlugin blocks until cancelled and tracks how many calls overlap
type concurrencyPlugin struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	entered chan string
}

func newConcurrencyPlugin() *concurrencyPlugin {
	return &concurrencyPlugin{entered: make(chan string, 16)}
}

func (p *concurrencyPlugin) Name() string { return "blocking" }

func (p *concurrencyPlugin) Populate(ctx context.Context, _ plugins.Sink, _ domain.PopulationFilter, query string) error {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		old := p.maxSeen.Load()
		if n <= old || p.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	p.entered <- query
	<-ctx.Done()
	// linger a little after cancellation, like a backend finishing a batch
	time.Sleep(20 * time.Millisecond)
	return ctx.Err()
}

// heldPlugin emits one item, then holds the search open until cancelled
type heldPlugin struct {
	ctxs chan context.Context
}

func newHeldPlugin() *heldPlugin {
	return &heldPlugin{ctxs: make(chan context.Context, 4)}
}

func (p *heldPlugin) Name() string { return "held" }

func (p *heldPlugin) Populate(ctx context.Context, sink plugins.Sink, _ domain.PopulationFilter, query string) error {
	if err := sink.Add(query, domain.Item{Name: query}); err != nil {
		return err
	}
	p.ctxs <- ctx
	<-ctx.Done()
	return ctx.Err()
}

// stubbornPlugin ignores cancellation until released
type stubbornPlugin struct {
	release chan struct{}
	calls   atomic.Int32
}

func (p *stubbornPlugin) Name() string { return "stubborn" }

func (p *stubbornPlugin) Populate(context.Context, plugins.Sink, domain.PopulationFilter, string) error {
	p.calls.Add(1)
	<-p.release
	return nil
}

type failingPlugin struct{ err error }

func (p failingPlugin) Name() string { return "failing" }

func (p failingPlugin) Populate(context.Context, plugins.Sink, domain.PopulationFilter, string) error {
	return p.err
}

// remotePlugin queries an HTTP backend with its own client timeout
type remotePlugin struct {
	url    string
	client *http.Client
}

func (remotePlugin) Name() string { return "remote" }

func (p remotePlugin) Populate(ctx context.Context, sink plugins.Sink, _ domain.PopulationFilter, query string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?q="+query, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()
	return sink.Add(query, domain.Item{Name: query})
}

type panickingPlugin struct{}

func (panickingPlugin) Name() string { return "panicking" }

func (panickingPlugin) Populate(context.Context, plugins.Sink, domain.PopulationFilter, string) error {
	panic("binding exploded")
}

var errBackend = errors.New("exit status 100")

// memorySink is a ResultsSink recording what the coordinator applied
type memorySink struct {
	ids    []string
	clears int
}

func (s *memorySink) Add(id string, _ domain.Item) { s.ids = append(s.ids, id) }
func (s *memorySink) Clear() {
	s.ids = nil
	s.clears++
}

func newExecutor(t *testing.T, opts Options, ps ...plugins.Plugin) *Executor {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	e := NewExecutor(plugins.List(ps), opts)
	t.Cleanup(e.Close)
	return e
}

// drain applies updates to c until the displayed search completes
func drain(t *testing.T, e *Executor, c *Coordinator) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for c.Searching() {
		select {
		case u := <-e.Updates():
			c.Apply(u)
		case <-deadline:
			t.Fatal("search did not complete")
		}
	}
}

// waitExit waits until e's latest worker has exited
func waitExit(t *testing.T, e *Executor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
}
