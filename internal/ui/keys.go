package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of the main screen. Plain letters go to the
// search box, so every action sits on a control or navigation key.
type keyMap struct {
	Up              key.Binding
	Down            key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	Home            key.Binding
	End             key.Binding
	Details         key.Binding
	Homepage        key.Binding
	Clear           key.Binding
	ToggleInstalled key.Binding
	ToggleSearch    key.Binding
	Quit            key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:              key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:            key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		PageUp:          key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:        key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:            key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first")),
		End:             key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last")),
		Details:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Homepage:        key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "homepage")),
		Clear:           key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		ToggleInstalled: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "installed only")),
		ToggleSearch:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "search bar")),
		Quit:            key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Details, k.Homepage, k.ToggleInstalled, k.ToggleSearch, k.Clear, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Details, k.Homepage},
		{k.ToggleInstalled, k.ToggleSearch, k.Clear, k.Quit},
	}
}
