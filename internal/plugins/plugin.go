// Package plugins defines the contract between the search worker and the
// package backends, plus the registry that decides which backends are active.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"softcenter/internal/domain"
)

var (
	// ErrStop tells a plugin to stop populating without it counting as a failure
	ErrStop = errors.New("stop population")
	// ErrUnsupportedFilter is returned by plugins that cannot handle a population filter
	ErrUnsupportedFilter = errors.New("unsupported population filter")
	// ErrUnavailable is returned by probes when a backend is missing on this system
	ErrUnavailable = errors.New("backend unavailable")
)

// Sink receives the items produced by a plugin. A non-nil error from Add
// means the plugin must stop and return; the search was cancelled or has
// enough results.
type Sink interface {
	Add(id string, item domain.Item) error
}

// Plugin is a package backend. Populate may run for a long time and must
// observe ctx, checking it at least once per result batch.
type Plugin interface {
	Name() string
	Populate(ctx context.Context, sink Sink, filter domain.PopulationFilter, query string) error
}

// Source supplies the active plugins in search order
type Source interface {
	Plugins() []Plugin
}

// List is a fixed plugin set
type List []Plugin

// Plugins returns a copy of the list
func (l List) Plugins() []Plugin {
	out := make([]Plugin, len(l))
	copy(out, l)
	return out
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(id string, item domain.Item) error

func (f SinkFunc) Add(id string, item domain.Item) error { return f(id, item) }

// IsStop reports whether err is a clean stop rather than a failure. Context
// errors are not stops: a plugin's own timeout is a failure, and the caller
// knows from its own context whether the search was cancelled.
func IsStop(err error) bool {
	return errors.Is(err, ErrStop)
}

// SafePopulate calls p.Populate and converts a panic into an error
func SafePopulate(ctx context.Context, p Plugin, sink Sink, filter domain.PopulationFilter, query string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked: %v\n%s", p.Name(), r, debug.Stack())
		}
	}()
	return p.Populate(ctx, sink, filter, query)
}
