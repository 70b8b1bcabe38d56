// Package catalog serves packages described in a local YAML file. The
// entries are indexed in memory with bleve and reloaded when the file
// changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"charm.land/log/v2"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/fsnotify/fsnotify"

	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

// Name is the plugin name used in configuration
const Name = "catalog"

const reloadDelay = 100 * time.Millisecond

// ErrClosed is returned after Close
var ErrClosed = errors.New("catalog closed")

// document is what gets indexed for an entry
type document struct {
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Keywords string `json:"keywords"`
}

// Plugin searches the catalog file
type Plugin struct {
	path   string
	bus    eventbus.EventBus
	logger *log.Logger

	mu      sync.RWMutex
	index   bleve.Index
	entries map[string]Entry
	order   []string
	closed  bool
}

// Factory registers the plugin when the catalog file exists
func Factory(path string, bus eventbus.EventBus, logger *log.Logger) plugins.Factory {
	return plugins.Factory{
		Name: Name,
		New: func(ctx context.Context) (plugins.Plugin, error) {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: no catalog at %s", plugins.ErrUnavailable, path)
			}
			return Open(path, bus, logger)
		},
	}
}

// Open loads and indexes the catalog at path. bus may be nil.
func Open(path string, bus eventbus.EventBus, logger *log.Logger) (*Plugin, error) {
	p := &Plugin{
		path:   filepath.Clean(path),
		bus:    bus,
		logger: logging.OrDefault(logger).With("plugin", Name),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plugin) Name() string { return Name }

// Path is the catalog file location
func (p *Plugin) Path() string { return p.path }

// Len returns the number of entries
func (p *Plugin) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Reload re-reads the file and swaps in a fresh index. On failure the
// previous contents stay in service.
func (p *Plugin) Reload() error {
	entries, err := Load(p.path)
	if err == nil {
		err = p.replace(entries)
	}

	if p.bus != nil {
		p.bus.Publish(domain.CatalogReloadedEvent{Path: p.path, Entries: len(entries), Err: err})
	}
	if err != nil {
		p.logger.Warn("catalog reload failed", "path", p.path, "err", err)
		return err
	}
	p.logger.Debug("catalog loaded", "path", p.path, "entries", len(entries))
	return nil
}

func (p *Plugin) replace(entries []Entry) error {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create catalog index: %w", err)
	}

	batch := index.NewBatch()
	byID := make(map[string]Entry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		doc := document{Name: e.Name, Summary: e.Summary, Keywords: strings.Join(e.Keywords, " ")}
		if err := batch.Index(e.ID, doc); err != nil {
			index.Close()
			return fmt.Errorf("failed to index %s: %w", e.ID, err)
		}
		byID[e.ID] = e
		order = append(order, e.ID)
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return fmt.Errorf("failed to build catalog index: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		index.Close()
		return ErrClosed
	}
	old := p.index
	p.index, p.entries, p.order = index, byID, order
	if old != nil {
		old.Close()
	}
	return nil
}

func (p *Plugin) Populate(ctx context.Context, sink plugins.Sink, filter domain.PopulationFilter, q string) error {
	var (
		matches []Entry
		err     error
	)
	switch filter {
	case domain.FilterSearch:
		if q == "" {
			return nil
		}
		matches, err = p.search(ctx, q)
	case domain.FilterInstalled:
		matches, err = p.installed(q)
	default:
		return fmt.Errorf("%w: %s", plugins.ErrUnsupportedFilter, filter)
	}
	if err != nil {
		return err
	}

	for _, e := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Add(e.ID, e.Item()); err != nil {
			return err
		}
	}
	return nil
}

// search matches whole words in any text field, or a prefix of the name
func (p *Plugin) search(ctx context.Context, q string) ([]Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	var disjuncts []query.Query
	for _, field := range []string{"name", "summary", "keywords"} {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		disjuncts = append(disjuncts, m)
	}
	for _, word := range strings.Fields(strings.ToLower(q)) {
		pq := bleve.NewPrefixQuery(word)
		pq.SetField("name")
		disjuncts = append(disjuncts, pq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(disjuncts...))
	req.Size = len(p.order)
	res, err := p.index.SearchInContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	out := make([]Entry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if e, ok := p.entries[hit.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (p *Plugin) installed(q string) ([]Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	var out []Entry
	for _, id := range p.order {
		e := p.entries[id]
		if e.Installed && e.Item().MatchesQuery(q) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Watch reloads the catalog whenever its file is written, created or
// replaced, until ctx is done. Editors that save through a rename are
// handled by watching the directory.
func (p *Plugin) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(p.path), err)
	}

	timer := time.NewTimer(reloadDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(reloadDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("catalog watcher error", "err", err)
		case <-timer.C:
			_ = p.Reload()
		}
	}
}

// Close releases the index
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.index != nil {
		return p.index.Close()
	}
	return nil
}
