package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softcenter/internal/domain"
)

func collect(ids *[]string) Sink {
	return SinkFunc(func(id string, _ domain.Item) error {
		*ids = append(*ids, id)
		return nil
	})
}

func TestCacheReplaysCompletePopulation(t *testing.T) {
	inner := &staticPlugin{name: "catalog", items: []domain.Item{
		{ID: "vim", Name: "Vim"},
		{ID: "vim-plugins", Name: "Vim plugins"},
		{ID: "emacs", Name: "Emacs"},
	}}
	p := WithCache(inner, 4)
	assert.Equal(t, "catalog", p.Name())

	var first, second []string
	require.NoError(t, p.Populate(context.Background(), collect(&first), domain.FilterSearch, "vim"))
	require.NoError(t, p.Populate(context.Background(), collect(&second), domain.FilterSearch, "vim"))

	assert.Equal(t, []string{"vim", "vim-plugins"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())

}

func TestCacheBypassesInstalledFilter(t *testing.T) {
	inner := &staticPlugin{name: "native", items: []domain.Item{{ID: "vim", Installed: true}}}
	p := WithCache(inner, 4)

	var first []string
	require.NoError(t, p.Populate(context.Background(), collect(&first), domain.FilterInstalled, "vim"))
	assert.Equal(t, []string{"vim"}, first)

	// removed outside the application
	inner.items = nil
	var second []string
	require.NoError(t, p.Populate(context.Background(), collect(&second), domain.FilterInstalled, "vim"))
	assert.Empty(t, second)
	assert.Equal(t, int32(2), inner.calls.Load())

	// search populations are still cached
	require.NoError(t, p.Populate(context.Background(), collect(new([]string)), domain.FilterSearch, "vim"))
	require.NoError(t, p.Populate(context.Background(), collect(new([]string)), domain.FilterSearch, "vim"))
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestCacheSkipsInterruptedPopulation(t *testing.T) {
	inner := &staticPlugin{name: "catalog", items: []domain.Item{{ID: "a"}, {ID: "b"}}}
	p := WithCache(inner, 4)

	stopAfterOne := SinkFunc(func(string, domain.Item) error { return ErrStop })
	err := p.Populate(context.Background(), stopAfterOne, domain.FilterSearch, "")
	require.ErrorIs(t, err, ErrStop)

	var ids []string
	require.NoError(t, p.Populate(context.Background(), collect(&ids), domain.FilterSearch, ""))
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCacheHonoursCancellationOnReplay(t *testing.T) {
	inner := &staticPlugin{name: "catalog", items: []domain.Item{{ID: "a"}, {ID: "b"}}}
	p := WithCache(inner, 4)

	var ids []string
	require.NoError(t, p.Populate(context.Background(), collect(&ids), domain.FilterSearch, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Populate(ctx, collect(&ids), domain.FilterSearch, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCachePurgeAndClose(t *testing.T) {
	inner := &staticPlugin{name: "catalog", items: []domain.Item{{ID: "a"}}}
	p := WithCache(inner, 2)

	var ids []string
	require.NoError(t, p.Populate(context.Background(), collect(&ids), domain.FilterSearch, ""))
	p.(Purger).Purge()
	require.NoError(t, p.Populate(context.Background(), collect(&ids), domain.FilterSearch, ""))
	assert.Equal(t, int32(2), inner.calls.Load())

	require.NoError(t, p.(interface{ Close() error }).Close())
	assert.True(t, inner.closed.Load())
}

func TestCacheDisabledReturnsInner(t *testing.T) {
	inner := &staticPlugin{name: "catalog"}
	assert.Same(t, Plugin(inner), WithCache(inner, 0))
}
