// Package flatpak searches the configured flatpak remotes and the
// installed applications through the flatpak command line.
package flatpak

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"charm.land/log/v2"

	"softcenter/internal/domain"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
	"softcenter/internal/plugins/cmdrun"
)

// Name is the plugin name used in configuration
const Name = "flatpak"

const columns = "application,name,description,version"

// Plugin runs flatpak search and flatpak list
type Plugin struct {
	bin    string
	logger *log.Logger
}

// New returns a plugin using the flatpak binary at bin
func New(bin string, logger *log.Logger) *Plugin {
	return &Plugin{bin: bin, logger: logging.OrDefault(logger).With("plugin", Name)}
}

// Factory registers the plugin when flatpak is on PATH
func Factory(logger *log.Logger) plugins.Factory {
	return plugins.Factory{
		Name: Name,
		New: func(ctx context.Context) (plugins.Plugin, error) {
			bin, err := exec.LookPath("flatpak")
			if err != nil {
				return nil, fmt.Errorf("%w: flatpak not installed", plugins.ErrUnavailable)
			}
			return New(bin, logger), nil
		},
	}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Populate(ctx context.Context, sink plugins.Sink, filter domain.PopulationFilter, query string) error {
	var (
		argv      []string
		installed bool
	)
	switch filter {
	case domain.FilterSearch:
		if query == "" {
			return nil
		}
		argv = []string{p.bin, "search", "--columns=" + columns, query}
	case domain.FilterInstalled:
		argv = []string{p.bin, "list", "--app", "--columns=" + columns}
		installed = true
	default:
		return fmt.Errorf("%w: %s", plugins.ErrUnsupportedFilter, filter)
	}

	p.logger.Debug("running flatpak", "args", argv[1:])
	return cmdrun.Run(ctx, cmdrun.Command{Argv: argv}, func(r io.Reader) error {
		return parseColumns(r, func(it domain.Item) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// flatpak list has no query argument
			if installed && !it.MatchesQuery(query) {
				return nil
			}
			it.Installed = installed
			return sink.Add(it.ID, it)
		})
	})
}

// parseColumns reads tab separated application, name, description and
// version columns. The same application can be offered by several remotes;
// only its first row is kept.
func parseColumns(r io.Reader, emit func(domain.Item) error) error {
	seen := map[string]bool{}
	return cmdrun.ScanLines(r, func(line string) error {
		fields := strings.Split(line, "\t")
		id := strings.TrimSpace(fields[0])
		if id == "" || !strings.Contains(id, ".") || seen[id] {
			// "No matches found" and other chatter has no application id
			return nil
		}
		seen[id] = true

		it := domain.Item{ID: id, Name: id}
		if len(fields) > 1 && strings.TrimSpace(fields[1]) != "" {
			it.Name = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			it.Summary = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			it.Version = strings.TrimSpace(fields[3])
		}
		return emit(it)
	})
}
