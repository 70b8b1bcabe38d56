package native

import (
	"context"
	"io"
	"regexp"
	"strings"

	"softcenter/internal/domain"
	"softcenter/internal/plugins/cmdrun"
)

const dpkgFormat = "${db:Status-Abbrev}\t${Package}\t${Version}\t${binary:Summary}\n"

type apt struct{}

func (apt) name() string { return "apt" }

func (apt) search(ctx context.Context, query string, emit emitFunc) error {
	c := cmdrun.Command{Argv: []string{"apt-cache", "search", "--names-only", regexp.QuoteMeta(query)}}
	return cmdrun.Run(ctx, c, func(r io.Reader) error { return parseAptSearch(r, emit) })
}

func (apt) installed(ctx context.Context, query string, emit emitFunc) error {
	c := cmdrun.Command{Argv: []string{"dpkg-query", "-W", "-f=" + dpkgFormat}}
	return cmdrun.Run(ctx, c, func(r io.Reader) error {
		return parseDpkgQuery(r, func(it domain.Item) error {
			if !it.MatchesQuery(query) {
				return nil
			}
			return emit(it)
		})
	})
}

// parseAptSearch reads "name - summary" lines
func parseAptSearch(r io.Reader, emit emitFunc) error {
	return cmdrun.ScanLines(r, func(line string) error {
		name, summary, ok := strings.Cut(line, " - ")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil
		}
		return emit(domain.Item{ID: name, Name: name, Summary: strings.TrimSpace(summary)})
	})
}

// parseDpkgQuery reads dpkgFormat lines, keeping fully installed packages
func parseDpkgQuery(r io.Reader, emit emitFunc) error {
	return cmdrun.ScanLines(r, func(line string) error {
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) < 3 || !strings.HasPrefix(fields[0], "ii") {
			return nil
		}
		it := domain.Item{
			ID:        fields[1],
			Name:      fields[1],
			Version:   fields[2],
			Installed: true,
		}
		if len(fields) == 4 {
			it.Summary = fields[3]
		}
		return emit(it)
	})
}
