package native

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.alpinelinux.org/alpine/go/repository"

	"softcenter/internal/domain"
	"softcenter/internal/plugins/cmdrun"
)

// apk reads the repository indexes apk keeps in its cache instead of
// shelling out, so searching works without root and without the network.
type apk struct {
	cacheDir    string
	installedDB string
}

func (apk) name() string { return "apk" }

func (a apk) search(ctx context.Context, query string, emit emitFunc) error {
	indexes, err := filepath.Glob(filepath.Join(a.cacheDir, "APKINDEX.*.tar.gz"))
	if err != nil {
		return fmt.Errorf("failed to list apk indexes: %w", err)
	}
	if len(indexes) == 0 {
		return fmt.Errorf("no APKINDEX archives in %s, run apk update", a.cacheDir)
	}

	installed := map[string]bool{}
	if f, err := os.Open(a.installedDB); err == nil {
		_ = parseInstalledDB(f, func(it domain.Item) error {
			installed[it.ID] = true
			return nil
		})
		f.Close()
	}

	seen := map[string]bool{}
	for _, path := range indexes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.searchIndex(path, query, seen, installed, emit); err != nil {
			return err
		}
	}
	return nil
}

func (a apk) searchIndex(path, query string, seen, installed map[string]bool, emit emitFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	index, err := repository.IndexFromArchive(f)
	if err != nil {
		return fmt.Errorf("failed to parse APKINDEX %s: %w", path, err)
	}

	for _, pkg := range index.Packages {
		if seen[pkg.Name] {
			continue
		}
		it := domain.Item{
			ID:        pkg.Name,
			Name:      pkg.Name,
			Summary:   pkg.Description,
			Version:   pkg.Version,
			Homepage:  pkg.URL,
			Installed: installed[pkg.Name],
		}
		if !it.MatchesQuery(query) {
			continue
		}
		seen[pkg.Name] = true
		if err := emit(it); err != nil {
			return err
		}
	}
	return nil
}

func (a apk) installed(ctx context.Context, query string, emit emitFunc) error {
	f, err := os.Open(a.installedDB)
	if err != nil {
		return fmt.Errorf("failed to open apk database: %w", err)
	}
	defer f.Close()

	return parseInstalledDB(f, func(it domain.Item) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !it.MatchesQuery(query) {
			return nil
		}
		return emit(it)
	})
}

// parseInstalledDB reads the blank-line separated records of
// /lib/apk/db/installed, keyed by single letter prefixes.
func parseInstalledDB(r io.Reader, emit emitFunc) error {
	var cur domain.Item

	flush := func() error {
		if cur.ID == "" {
			return nil
		}
		it := cur
		cur = domain.Item{}
		it.Name = it.ID
		it.Installed = true
		return emit(it)
	}

	err := cmdrun.ScanLines(r, func(line string) error {
		if line == "" {
			return flush()
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil
		}
		switch key {
		case "P":
			cur.ID = value
		case "V":
			cur.Version = value
		case "T":
			cur.Summary = value
		case "U":
			cur.Homepage = value
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}
