// Package native searches the distribution's own package manager: apt on
// Debian derivatives, pacman on Arch and the apk index cache on Alpine.
package native

import (
	"context"
	"fmt"

	"charm.land/log/v2"

	"softcenter/internal/domain"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

// Name is the plugin name used in configuration
const Name = "native"

type emitFunc func(domain.Item) error

// manager is one package manager flavour
type manager interface {
	name() string
	search(ctx context.Context, query string, emit emitFunc) error
	installed(ctx context.Context, query string, emit emitFunc) error
}

// Plugin searches the detected package manager
type Plugin struct {
	mgr    manager
	logger *log.Logger
}

func (p *Plugin) Name() string { return Name }

// Manager names the package manager in use
func (p *Plugin) Manager() string { return p.mgr.name() }

// Populate streams matching packages into sink, one Add per package
func (p *Plugin) Populate(ctx context.Context, sink plugins.Sink, filter domain.PopulationFilter, query string) error {
	emit := func(it domain.Item) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return sink.Add(it.ID, it)
	}

	switch filter {
	case domain.FilterSearch:
		if query == "" {
			return nil
		}
		p.logger.Debug("searching", "manager", p.mgr.name(), "query", query)
		return p.mgr.search(ctx, query, emit)
	case domain.FilterInstalled:
		p.logger.Debug("listing installed", "manager", p.mgr.name(), "query", query)
		return p.mgr.installed(ctx, query, emit)
	default:
		return fmt.Errorf("%w: %s", plugins.ErrUnsupportedFilter, filter)
	}
}

func newPlugin(mgr manager, logger *log.Logger) *Plugin {
	return &Plugin{mgr: mgr, logger: logging.OrDefault(logger).With("plugin", Name)}
}
