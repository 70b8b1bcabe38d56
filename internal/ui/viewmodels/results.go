package viewmodels

import (
	"softcenter/internal/domain"
)

// Direction represents movement directions
type Direction string

const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionPageUp   Direction = "pageup"
	DirectionPageDown Direction = "pagedown"
	DirectionHome     Direction = "home"
	DirectionEnd      Direction = "end"
)

// Results is the result list shown under the search box. It receives items
// from the search coordinator and tracks the cursor and viewport.
//
// Rows are keyed by plugin and id, so the same package offered by two
// backends shows up twice.
type Results struct {
	items []domain.Item
	index map[resultKey]int

	cursor         int
	viewportOffset int
	viewportHeight int
}

type resultKey struct {
	source string
	id     string
}

// NewResults creates an empty result list
func NewResults() *Results {
	return &Results{
		index:          make(map[resultKey]int),
		viewportHeight: 20, // updated on the first window size
	}
}

// Add appends item, or replaces the row a plugin already produced for id
func (r *Results) Add(id string, item domain.Item) {
	if item.ID == "" {
		item.ID = id
	}
	k := resultKey{source: item.Source, id: id}
	if i, ok := r.index[k]; ok {
		r.items[i] = item
		return
	}
	r.index[k] = len(r.items)
	r.items = append(r.items, item)
}

// Clear removes every row and resets the cursor
func (r *Results) Clear() {
	r.items = nil
	r.index = make(map[resultKey]int)
	r.cursor = 0
	r.viewportOffset = 0
}

// Len is the number of rows
func (r *Results) Len() int {
	return len(r.items)
}

// Items returns all rows in arrival order
func (r *Results) Items() []domain.Item {
	out := make([]domain.Item, len(r.items))
	copy(out, r.items)
	return out
}

// Selected returns the row under the cursor
func (r *Results) Selected() (domain.Item, bool) {
	if r.cursor < 0 || r.cursor >= len(r.items) {
		return domain.Item{}, false
	}
	return r.items[r.cursor], true
}

// Cursor returns current cursor position
func (r *Results) Cursor() int {
	return r.cursor
}

// ViewportOffset returns the index of the first visible row
func (r *Results) ViewportOffset() int {
	return r.viewportOffset
}

// ViewportHeight returns how many rows fit on screen
func (r *Results) ViewportHeight() int {
	return r.viewportHeight
}

// SetViewportHeight updates viewport height
func (r *Results) SetViewportHeight(height int) {
	if height < 1 {
		height = 1
	}
	r.viewportHeight = height
	r.ensureVisible()
}

// Visible returns the rows inside the viewport
func (r *Results) Visible() []domain.Item {
	start := r.viewportOffset
	if start > len(r.items) {
		start = len(r.items)
	}
	end := start + r.viewportHeight
	if end > len(r.items) {
		end = len(r.items)
	}
	return r.items[start:end]
}

// Navigate moves the cursor
func (r *Results) Navigate(direction Direction) {
	pageSize := r.viewportHeight - 1
	if pageSize < 1 {
		pageSize = 1
	}

	switch direction {
	case DirectionUp:
		r.cursor--
	case DirectionDown:
		r.cursor++
	case DirectionPageUp:
		r.cursor -= pageSize
	case DirectionPageDown:
		r.cursor += pageSize
	case DirectionHome:
		r.cursor = 0
	case DirectionEnd:
		r.cursor = len(r.items) - 1
	}
	r.cursor = r.clampIndex(r.cursor)
	r.ensureVisible()
}

func (r *Results) clampIndex(index int) int {
	if index >= len(r.items) {
		index = len(r.items) - 1
	}
	if index < 0 {
		return 0
	}
	return index
}

func (r *Results) ensureVisible() {
	if r.cursor < r.viewportOffset {
		r.viewportOffset = r.cursor
	} else if r.cursor >= r.viewportOffset+r.viewportHeight {
		r.viewportOffset = r.cursor - r.viewportHeight + 1
	}
	if r.viewportOffset < 0 {
		r.viewportOffset = 0
	}
}
