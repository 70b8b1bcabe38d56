package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"charm.land/log/v2"
	"golang.org/x/sync/errgroup"

	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
)

// Factory creates a plugin, probing whether its backend exists on this system
type Factory struct {
	Name string
	New  func(ctx context.Context) (Plugin, error)
}

// Registration is the outcome of registering one factory
type Registration struct {
	Name   string
	Plugin Plugin
	Err    error
}

// OK reports whether the plugin is active
func (r Registration) OK() bool {
	return r.Err == nil && r.Plugin != nil
}

// Registry holds the active plugins in registration order
type Registry struct {
	mu            sync.RWMutex
	bus           eventbus.EventBus
	logger        *log.Logger
	plugins       []Plugin
	registrations []Registration
}

// NewRegistry creates an empty registry. bus may be nil.
func NewRegistry(bus eventbus.EventBus, logger *log.Logger) *Registry {
	return &Registry{
		bus:    bus,
		logger: logging.OrDefault(logger),
	}
}

// Register probes every factory concurrently and appends the ones that
// succeed, keeping factory order. Failures are logged and omitted; they are
// never fatal.
func (r *Registry) Register(ctx context.Context, factories ...Factory) []Registration {
	results := make([]Registration, len(factories))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range factories {
		g.Go(func() error {
			results[i] = probe(gctx, f)
			// Probe failures are recorded, not returned, so one missing
			// backend does not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	for _, res := range results {
		r.registrations = append(r.registrations, res)
		if res.OK() {
			r.plugins = append(r.plugins, res.Plugin)
		}
	}
	r.mu.Unlock()

	for _, res := range results {
		if res.OK() {
			r.logger.Info("plugin registered", "plugin", res.Name)
			r.publish(domain.PluginRegisteredEvent{Name: res.Name})
		} else {
			r.logger.Warn("plugin unavailable on this system", "plugin", res.Name, "err", res.Err)
			r.publish(domain.PluginUnavailableEvent{Name: res.Name, Err: res.Err})
		}
	}

	return results
}

func probe(ctx context.Context, f Factory) (reg Registration) {
	reg.Name = f.Name
	defer func() {
		if rec := recover(); rec != nil {
			reg.Plugin = nil
			reg.Err = fmt.Errorf("probe panicked: %v\n%s", rec, debug.Stack())
		}
	}()

	if f.New == nil {
		reg.Err = fmt.Errorf("%w: no constructor", ErrUnavailable)
		return reg
	}
	p, err := f.New(ctx)
	if err != nil {
		reg.Err = err
		return reg
	}
	if p == nil {
		reg.Err = fmt.Errorf("%w: constructor returned nil", ErrUnavailable)
		return reg
	}
	reg.Plugin = p
	return reg
}

func (r *Registry) publish(ev domain.DomainEvent) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

// Plugins returns the active plugins in search order
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Registrations returns every registration attempt, successful or not
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, len(r.registrations))
	copy(out, r.registrations)
	return out
}

// Close closes every active plugin that holds resources
func (r *Registry) Close() error {
	r.mu.Lock()
	plugins := r.plugins
	r.plugins = nil
	r.mu.Unlock()

	var errs []error
	for _, p := range plugins {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close plugin %s: %w", p.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
