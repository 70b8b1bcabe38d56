package snapd

import (
	"context"
	"fmt"

	"charm.land/log/v2"

	"softcenter/internal/domain"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

// Name is the plugin name used in configuration
const Name = "snapd"

// Plugin searches the snap store through the local snapd
type Plugin struct {
	client *Client
	logger *log.Logger
}

// New wraps client in a plugin
func New(client *Client, logger *log.Logger) *Plugin {
	return &Plugin{client: client, logger: logging.OrDefault(logger).With("plugin", Name)}
}

// Factory registers the plugin if snapd answers on its socket
func Factory(opts ClientOptions, logger *log.Logger) plugins.Factory {
	return plugins.Factory{
		Name: Name,
		New: func(ctx context.Context) (plugins.Plugin, error) {
			p := New(NewClient(opts), logger)
			info, err := p.client.SystemInfo(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", plugins.ErrUnavailable, err)
			}
			p.logger.Debug("snapd available", "version", info.Version, "series", info.Series)
			return p, nil
		},
	}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Populate(ctx context.Context, sink plugins.Sink, filter domain.PopulationFilter, query string) error {
	var (
		snaps []Snap
		err   error
	)
	switch filter {
	case domain.FilterSearch:
		if query == "" {
			return nil
		}
		snaps, err = p.client.Find(ctx, query)
	case domain.FilterInstalled:
		snaps, err = p.client.Snaps(ctx)
	default:
		return fmt.Errorf("%w: %s", plugins.ErrUnsupportedFilter, filter)
	}
	if err != nil {
		return err
	}

	for _, s := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		it := toItem(s)
		if filter == domain.FilterInstalled {
			if !it.MatchesQuery(query) {
				continue
			}
			it.Installed = true
		}
		if err := sink.Add(it.ID, it); err != nil {
			return err
		}
	}
	return nil
}

func toItem(s Snap) domain.Item {
	name := s.Title
	if name == "" {
		name = s.Name
	}
	return domain.Item{
		ID:        s.Name,
		Name:      name,
		Summary:   s.Summary,
		Version:   s.Version,
		Homepage:  s.Website,
		Installed: s.Installed(),
	}
}
