package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"softcenter/internal/eventbus"
	"softcenter/internal/search"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// debounceMsg is delivered when a debounce trigger expires
type debounceMsg struct {
	ticket search.Ticket
}

// updateMsg carries one worker update into the loop
type updateMsg struct {
	update search.Update
}

// detailsMsg contains the result of a details pager command
type detailsMsg struct {
	id  string
	err error
}

// browserMsg contains the result of opening a homepage
type browserMsg struct {
	url string
	err error
}

// waitForUpdate pumps the next worker update into the program
func waitForUpdate(updates <-chan search.Update) tea.Cmd {
	return func() tea.Msg {
		return updateMsg{update: <-updates}
	}
}
