package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderShowsRowsAsIDAndName(t *testing.T) {
	r := NewRenderer()
	out := r.Render(ViewState{
		Width:         100,
		Height:        24,
		SearchVisible: true,
		SearchInput:   "> vim",
		Query:         "vim",
		Rows: []Row{
			{ID: "vim", Name: "Vi IMproved", Source: "native", Installed: true, Selected: true},
			{ID: "neovim", Name: "neovim", Source: "snapd"},
		},
		Total:         2,
		StatusMessage: "2 results",
	})

	assert.Contains(t, out, Title)
	assert.Contains(t, out, "vim - Vi IMproved")
	assert.Contains(t, out, "neovim")
	assert.NotContains(t, out, "neovim - neovim", "a name equal to the id is not repeated")
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "2 results")
	assert.Contains(t, out, "> vim")
}

func TestRenderEmptyStates(t *testing.T) {
	r := NewRenderer()

	assert.Contains(t, r.Render(ViewState{Width: 80, Height: 24, SearchVisible: true}), "Type to search")
	assert.Contains(t, r.Render(ViewState{Width: 80, Height: 24}), "ctrl+f")
	assert.Contains(t, r.Render(ViewState{Width: 80, Height: 24, Query: "zzz", Searching: true, Spinner: "*"}), `Searching for "zzz"`)
	assert.Contains(t, r.Render(ViewState{Width: 80, Height: 24, Query: "zzz"}), `No results for "zzz"`)
}

func TestRenderShowsScrollPosition(t *testing.T) {
	r := NewRenderer()
	out := r.Render(ViewState{
		Width: 80, Height: 24, Query: "a",
		Rows:           []Row{{ID: "b"}, {ID: "c"}},
		Total:          10,
		ViewportOffset: 1,
	})
	assert.Contains(t, out, "2-3 of 10")
}

func TestRenderHeaderIndicators(t *testing.T) {
	r := NewRenderer()
	out := r.Render(ViewState{Width: 120, Height: 24, Filter: "installed", Searching: true, Spinner: "*", SearchVisible: true, Query: "x"})
	assert.Contains(t, out, "[installed]")
	assert.Contains(t, out, "* Searching")
	assert.Contains(t, out, "[*search*]")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
