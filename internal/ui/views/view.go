package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Title is shown at the left of the header bar
const Title = "Software Center"

// StatusKind selects the status line colour
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusWarning
	StatusError
)

// Row is one visible result
type Row struct {
	ID        string
	Name      string
	Source    string
	Installed bool
	Selected  bool
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Height         int
	SearchVisible  bool
	SearchInput    string
	Query          string
	Filter         string
	Searching      bool
	Spinner        string
	Rows           []Row
	Total          int
	ViewportOffset int
	StatusMessage  string
	StatusKind     StatusKind
	ShowHelp       bool
	Help           string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderHeader(state))
	content.WriteString("\n\n")

	if state.SearchVisible {
		width := state.Width - 8
		if width < 20 {
			width = 20
		}
		content.WriteString(r.styles.SearchBox.Width(width).Render(state.SearchInput))
		content.WriteString("\n")
	}

	content.WriteString(r.renderResults(state))

	footer := r.renderFooter(state)

	// Push the footer to the bottom of the screen
	currentLines := strings.Count(content.String(), "\n") + 1
	footerLines := strings.Count(footer, "\n") + 1
	availableLines := state.Height - 2 // Main padding
	if availableLines <= 0 {
		availableLines = 22
	}
	if padding := availableLines - currentLines - footerLines; padding > 0 {
		content.WriteString(strings.Repeat("\n", padding))
	}
	content.WriteString("\n")
	content.WriteString(footer)

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	return mainStyle.Render(content.String())
}

// renderHeader renders the title with the search toggle, filter and busy indicator right-aligned
func (r *Renderer) renderHeader(state ViewState) string {
	logo := r.styles.Title.Render(Title)

	var right []string
	if state.Searching {
		right = append(right, r.styles.Dim.Render(fmt.Sprintf("%s Searching", state.Spinner)))
	}
	if state.Filter != "" {
		right = append(right, r.styles.Filter.Render(fmt.Sprintf("[%s]", state.Filter)))
	}
	toggle := "[ search ]"
	if state.SearchVisible {
		toggle = "[*search*]"
	}
	right = append(right, r.styles.SearchToggle.Render(toggle))

	rightContent := strings.Join(right, "  ")

	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	paddingWidth := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(rightContent)
	if paddingWidth < 2 {
		paddingWidth = 2
	}
	return logo + strings.Repeat(" ", paddingWidth) + rightContent
}

func (r *Renderer) renderResults(state ViewState) string {
	switch {
	case state.Query == "" && state.Total == 0:
		if state.SearchVisible {
			return r.styles.Dim.Render("Type to search for software.")
		}
		return r.styles.Dim.Render("Press ctrl+f to search.")
	case state.Total == 0 && state.Searching:
		return r.styles.Dim.Render(fmt.Sprintf("Searching for %q...", state.Query))
	case state.Total == 0:
		return r.styles.Dim.Render(fmt.Sprintf("No results for %q.", state.Query))
	}

	lines := make([]string, 0, len(state.Rows)+1)
	for _, row := range state.Rows {
		lines = append(lines, r.renderRow(row, state.Width))
	}

	if end := state.ViewportOffset + len(state.Rows); state.ViewportOffset > 0 || end < state.Total {
		lines = append(lines, r.styles.Scroll.Render(
			fmt.Sprintf("%d-%d of %d", state.ViewportOffset+1, end, state.Total)))
	}
	return strings.Join(lines, "\n")
}

// renderRow renders "id - name" with the source and installed marker on the right
func (r *Renderer) renderRow(row Row, width int) string {
	marker := "  "
	if row.Selected {
		marker = r.styles.Highlight.Render("> ")
	}

	label := row.ID
	if row.Name != "" && row.Name != row.ID {
		label = fmt.Sprintf("%s - %s", row.ID, row.Name)
	}

	var tags []string
	if row.Installed {
		tags = append(tags, r.styles.Installed.Render("installed"))
	}
	if row.Source != "" {
		tags = append(tags, r.styles.Source.Render(row.Source))
	}
	tail := strings.Join(tags, " ")

	if width <= 0 {
		width = 80
	}
	avail := width - 4 - lipgloss.Width(marker) - lipgloss.Width(tail) - 1
	if avail < 10 {
		avail = 10
	}
	if lipgloss.Width(label) > avail {
		label = truncate(label, avail)
	}

	line := marker + label
	if tail != "" {
		pad := width - 4 - lipgloss.Width(line) - lipgloss.Width(tail)
		if pad < 1 {
			pad = 1
		}
		line += strings.Repeat(" ", pad) + tail
	}
	if row.Selected {
		return r.styles.SelectionBg.Render(line)
	}
	return line
}

func (r *Renderer) renderFooter(state ViewState) string {
	var parts []string
	if state.StatusMessage != "" {
		parts = append(parts, r.styles.Status(state.StatusKind).Render(state.StatusMessage))
	}
	if state.ShowHelp && state.Help != "" {
		parts = append(parts, r.styles.Help.Render(state.Help))
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
