package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

const sample = `packages:
  - id: org.gimp.GIMP
    name: GIMP
    summary: GNU Image Manipulation Program
    version: "2.10"
    homepage: https://www.gimp.org
    keywords: [photo, paint]
    installed: true
  - id: org.inkscape.Inkscape
    name: Inkscape
    summary: Vector graphics editor
    keywords: [svg, drawing]
  - id: org.gnome.Builder
    summary: IDE for GNOME
  - id: org.gimp.GIMP
    name: duplicate
`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func open(t *testing.T, path string, bus eventbus.EventBus) *Plugin {
	t.Helper()
	p, err := Open(path, bus, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func ids(t *testing.T, p *Plugin, filter domain.PopulationFilter, q string) []string {
	t.Helper()
	var out []string
	err := p.Populate(context.Background(), plugins.SinkFunc(func(id string, _ domain.Item) error {
		out = append(out, id)
		return nil
	}), filter, q)
	require.NoError(t, err)
	return out
}

func TestParseDropsDuplicatesAndDefaultsName(t *testing.T) {
	entries, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "GIMP", entries[0].Name)
	assert.Equal(t, "org.gnome.Builder", entries[2].Name)
	assert.Equal(t, []string{"photo", "paint"}, entries[0].Keywords)
}

func TestParseRejectsMissingID(t *testing.T) {
	_, err := Parse([]byte("packages:\n  - name: nameless\n"))
	assert.ErrorContains(t, err, "no id")

	_, err = Parse([]byte("packages: [unterminated"))
	assert.Error(t, err)
}

func TestSearchMatchesWordsAndPrefixes(t *testing.T) {
	p := open(t, writeCatalog(t, t.TempDir(), sample), nil)
	assert.Equal(t, 3, p.Len())

	assert.Equal(t, []string{"org.gimp.GIMP"}, ids(t, p, domain.FilterSearch, "gimp"))
	assert.Equal(t, []string{"org.gimp.GIMP"}, ids(t, p, domain.FilterSearch, "Gi"), "prefix of the name")
	assert.Equal(t, []string{"org.inkscape.Inkscape"}, ids(t, p, domain.FilterSearch, "svg"))
	assert.Equal(t, []string{"org.inkscape.Inkscape"}, ids(t, p, domain.FilterSearch, "vector"))
	assert.Empty(t, ids(t, p, domain.FilterSearch, "emacs"))
	assert.Empty(t, ids(t, p, domain.FilterSearch, ""))
}

func TestInstalledFilter(t *testing.T) {
	p := open(t, writeCatalog(t, t.TempDir(), sample), nil)

	assert.Equal(t, []string{"org.gimp.GIMP"}, ids(t, p, domain.FilterInstalled, ""))
	assert.Empty(t, ids(t, p, domain.FilterInstalled, "inkscape"))
}

func TestItemCarriesEntryFields(t *testing.T) {
	p := open(t, writeCatalog(t, t.TempDir(), sample), nil)

	var got domain.Item
	err := p.Populate(context.Background(), plugins.SinkFunc(func(_ string, it domain.Item) error {
		got = it
		return nil
	}), domain.FilterSearch, "gimp")
	require.NoError(t, err)
	assert.Equal(t, domain.Item{
		ID: "org.gimp.GIMP", Name: "GIMP", Summary: "GNU Image Manipulation Program",
		Version: "2.10", Homepage: "https://www.gimp.org", Installed: true,
	}, got)
}

func TestFactoryUnavailableWithoutFile(t *testing.T) {
	_, err := Factory(filepath.Join(t.TempDir(), "missing.yaml"), nil, logging.Discard()).New(context.Background())
	assert.ErrorIs(t, err, plugins.ErrUnavailable)
}

func TestReloadKeepsOldContentsOnError(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sample)
	p := open(t, path, nil)

	require.NoError(t, os.WriteFile(path, []byte("packages: [broken"), 0o644))
	assert.Error(t, p.Reload())
	assert.Equal(t, 3, p.Len())
}

func TestClosedCatalogRefusesSearches(t *testing.T) {
	p := open(t, writeCatalog(t, t.TempDir(), sample), nil)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err := p.Populate(context.Background(), plugins.SinkFunc(func(string, domain.Item) error { return nil }), domain.FilterSearch, "gimp")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWatchReloadsOnChange(t *testing.T) {
	bus := eventbus.NewWithLogger(logging.Discard())
	defer bus.Close()

	reloads := make(chan domain.CatalogReloadedEvent, 8)
	bus.Subscribe(eventbus.EventCatalogReloaded, func(ev eventbus.DomainEvent) {
		if e, ok := ev.(domain.CatalogReloadedEvent); ok {
			reloads <- e
		}
	})

	path := writeCatalog(t, t.TempDir(), sample)
	p := open(t, path, bus)
	<-reloads // initial load

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx) }()

	// give the watcher time to register before writing
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - id: org.kde.krita\n    name: Krita\n"), 0o644))

	select {
	case ev := <-reloads:
		assert.NoError(t, ev.Err)
		assert.Equal(t, 1, ev.Entries)
	case <-time.After(3 * time.Second):
		t.Fatal("catalog was not reloaded")
	}
	assert.Equal(t, []string{"org.kde.krita"}, ids(t, p, domain.FilterSearch, "krita"))

	cancel()
	assert.NoError(t, <-done)
}
