package viewmodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softcenter/internal/domain"
	"softcenter/internal/ui/views"
)

func fill(r *Results, n int) {
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		r.Add(id, domain.Item{Name: id, Source: "native"})
	}
}

func TestAddKeepsArrivalOrderAndReplacesSameSource(t *testing.T) {
	r := NewResults()
	r.Add("vim", domain.Item{Name: "vim", Source: "native"})
	r.Add("vim", domain.Item{Name: "vim", Source: "snapd"})
	r.Add("vim", domain.Item{Name: "Vim 9", Source: "native"})

	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Vim 9", items[0].Name)
	assert.Equal(t, "vim", items[0].ID, "the id is filled in from the key")
	assert.Equal(t, "snapd", items[1].Source)
}

func TestClearResetsCursor(t *testing.T) {
	r := NewResults()
	fill(r, 5)
	r.Navigate(DirectionEnd)
	assert.Equal(t, 4, r.Cursor())

	r.Clear()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Cursor())
	_, ok := r.Selected()
	assert.False(t, ok)
}

func TestNavigateClampsAndScrolls(t *testing.T) {
	r := NewResults()
	r.SetViewportHeight(3)
	fill(r, 10)

	r.Navigate(DirectionUp)
	assert.Equal(t, 0, r.Cursor())

	for i := 0; i < 4; i++ {
		r.Navigate(DirectionDown)
	}
	assert.Equal(t, 4, r.Cursor())
	assert.Equal(t, 2, r.ViewportOffset())
	assert.Len(t, r.Visible(), 3)

	r.Navigate(DirectionPageDown)
	assert.Equal(t, 6, r.Cursor())

	r.Navigate(DirectionEnd)
	assert.Equal(t, 9, r.Cursor())
	assert.Equal(t, 7, r.ViewportOffset())

	r.Navigate(DirectionPageUp)
	assert.Equal(t, 7, r.Cursor())

	r.Navigate(DirectionHome)
	assert.Equal(t, 0, r.Cursor())
	assert.Equal(t, 0, r.ViewportOffset())

	sel, ok := r.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", sel.ID)
}

func TestBuildViewStateMarksSelection(t *testing.T) {
	r := NewResults()
	r.SetViewportHeight(2)
	fill(r, 4)
	r.Navigate(DirectionDown)
	r.Navigate(DirectionDown)

	vm := NewViewModel(r)
	vm.SetDimensions(80, 24)
	vm.SetSearch(true, "> c", "c")
	vm.SetStatus("4 results", views.StatusInfo)
	state := vm.BuildViewState()

	require.Len(t, state.Rows, 2)
	assert.Equal(t, "b", state.Rows[0].ID)
	assert.False(t, state.Rows[0].Selected)
	assert.True(t, state.Rows[1].Selected)
	assert.Equal(t, 4, state.Total)
	assert.Equal(t, "c", state.Query)
	assert.Equal(t, "4 results", state.StatusMessage)
}
