package native

import (
	"context"
	"io"
	"regexp"
	"strings"

	"softcenter/internal/domain"
	"softcenter/internal/plugins/cmdrun"
)

type pacman struct{}

func (pacman) name() string { return "pacman" }

// pacman exits 1 when a search matches nothing
func (pacman) search(ctx context.Context, query string, emit emitFunc) error {
	c := cmdrun.Command{Argv: []string{"pacman", "-Ss", regexp.QuoteMeta(query)}, NoMatch: 1}
	return cmdrun.Run(ctx, c, func(r io.Reader) error { return parsePacman(r, emit) })
}

func (pacman) installed(ctx context.Context, query string, emit emitFunc) error {
	argv := []string{"pacman", "-Qs"}
	if query != "" {
		argv = append(argv, regexp.QuoteMeta(query))
	}
	return cmdrun.Run(ctx, cmdrun.Command{Argv: argv, NoMatch: 1}, func(r io.Reader) error {
		return parsePacman(r, func(it domain.Item) error {
			it.Installed = true
			return emit(it)
		})
	})
}

// parsePacman reads the two-line -Ss/-Qs format:
//
//	extra/vim 9.1.0-1 [installed]
//	    Vi Improved, a highly configurable, improved version of the vi text editor
func parsePacman(r io.Reader, emit emitFunc) error {
	var pending *domain.Item

	flush := func() error {
		if pending == nil {
			return nil
		}
		it := *pending
		pending = nil
		return emit(it)
	}

	err := cmdrun.ScanLines(r, func(line string) error {
		if line == "" {
			return nil
		}
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if pending != nil {
				pending.Summary = strings.TrimSpace(line)
			}
			return flush()
		}

		if err := flush(); err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil
		}
		_, name, found := strings.Cut(fields[0], "/")
		if !found {
			name = fields[0]
		}
		pending = &domain.Item{
			ID:        name,
			Name:      name,
			Version:   fields[1],
			Installed: strings.Contains(line, "[installed"),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}
