package ui

import (
	"fmt"
	"time"

	"charm.land/log/v2"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"softcenter/internal/config"
	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
	"softcenter/internal/search"
	"softcenter/internal/ui/viewmodels"
	"softcenter/internal/ui/views"
)

// chromeLines is the screen height taken by everything but result rows
const chromeLines = 11

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	config *config.Config
	logger *log.Logger

	executor    *search.Executor
	coordinator *search.Coordinator
	results     *viewmodels.Results
	viewModel   *viewmodels.ViewModel
	renderer    *views.Renderer
	pager       *Pager

	keys    keyMap
	input   textinput.Model
	spinner spinner.Model
	help    help.Model

	width         int
	height        int
	searchVisible bool
	filter        domain.PopulationFilter
	status        string
	statusKind    views.StatusKind
}

// NewModel creates a new UI model driving executor. The model owns the
// executor's update channel while the program runs.
func NewModel(executor *search.Executor, cfg *config.Config, bus eventbus.EventBus, logger *log.Logger) *Model {
	results := viewmodels.NewResults()

	input := textinput.New()
	input.Placeholder = "Search for software"
	input.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		bus:       bus,
		config:    cfg,
		logger:    logging.OrDefault(logger).With("component", "ui"),
		executor:  executor,
		results:   results,
		viewModel: viewmodels.NewViewModel(results),
		renderer:  views.NewRenderer(),
		pager:     NewPager(cfg.UI.Pager),
		keys:      defaultKeyMap(),
		input:     input,
		spinner:   sp,
		help:      help.New(),
		filter:    executor.Filter(),
	}
	m.coordinator = search.NewCoordinator(executor, results, cfg.Search.DebounceDelay(), logger)
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.SetProgram(p)
}

// Init starts pumping worker updates and opens the search bar
func (m *Model) Init() tea.Cmd {
	m.searchVisible = true
	return tea.Batch(
		waitForUpdate(m.executor.Updates()),
		m.input.Focus(),
		m.spinner.Tick,
	)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 12
		m.results.SetViewportHeight(msg.Height - chromeLines)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case debounceMsg:
		if gen, ok := m.coordinator.Fire(msg.ticket); ok {
			m.logger.Debug("debounce fired", "generation", gen, "query", m.coordinator.Text())
			m.setStatus(fmt.Sprintf("Searching for %q...", m.coordinator.Text()), views.StatusLoading)
		}
		return m, nil

	case updateMsg:
		if m.coordinator.Apply(msg.update) && msg.update.Kind == search.UpdateDone {
			m.finishSearch(msg.update)
		}
		return m, waitForUpdate(m.executor.Updates())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case detailsMsg:
		if msg.err != nil {
			m.logger.Warn("details pager failed", "id", msg.id, "err", msg.err)
			m.setStatus(fmt.Sprintf("Could not show details: %v", msg.err), views.StatusError)
		}
		return m, nil

	case browserMsg:
		if msg.err != nil {
			m.logger.Warn("failed to open homepage", "url", msg.url, "err", msg.err)
			m.setStatus(fmt.Sprintf("Could not open %s: %v", msg.url, msg.err), views.StatusError)
		} else {
			m.setStatus(fmt.Sprintf("Opened %s", msg.url), views.StatusInfo)
		}
		return m, nil

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	default:
		// Cursor blink and other widget messages
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.ToggleSearch):
		return m.toggleSearch()
	case key.Matches(msg, m.keys.Clear):
		m.clearSearch()
		return nil
	case key.Matches(msg, m.keys.Up):
		m.results.Navigate(viewmodels.DirectionUp)
		return nil
	case key.Matches(msg, m.keys.Down):
		m.results.Navigate(viewmodels.DirectionDown)
		return nil
	case key.Matches(msg, m.keys.PageUp):
		m.results.Navigate(viewmodels.DirectionPageUp)
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.results.Navigate(viewmodels.DirectionPageDown)
		return nil
	case key.Matches(msg, m.keys.Home):
		m.results.Navigate(viewmodels.DirectionHome)
		return nil
	case key.Matches(msg, m.keys.End):
		m.results.Navigate(viewmodels.DirectionEnd)
		return nil
	case key.Matches(msg, m.keys.Details):
		return m.showDetails()
	case key.Matches(msg, m.keys.Homepage):
		return m.openHomepage()
	case key.Matches(msg, m.keys.ToggleInstalled):
		m.toggleFilter()
		return nil
	}

	if !m.searchVisible {
		if msg.Type != tea.KeyRunes {
			return nil
		}
		// Typing with the bar hidden opens it
		m.searchVisible = true
		focus := m.input.Focus()
		return tea.Batch(focus, m.updateInput(msg))
	}
	return m.updateInput(msg)
}

// updateInput feeds a key to the search box and schedules a search when the text changed
func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return cmd
	}

	sched, ok := m.coordinator.TextChanged(m.input.Value())
	if !ok {
		m.setStatus("", views.StatusInfo)
		return cmd
	}
	return tea.Batch(cmd, debounce(sched))
}

func debounce(s search.Schedule) tea.Cmd {
	return tea.Tick(s.Delay, func(time.Time) tea.Msg {
		return debounceMsg{ticket: s.Ticket}
	})
}

func (m *Model) toggleSearch() tea.Cmd {
	if m.searchVisible {
		m.searchVisible = false
		m.input.Blur()
		m.clearSearch()
		return nil
	}
	m.searchVisible = true
	return m.input.Focus()
}

func (m *Model) clearSearch() {
	m.input.Reset()
	m.coordinator.Clear()
	m.setStatus("", views.StatusInfo)
}

func (m *Model) toggleFilter() {
	if m.filter == domain.FilterInstalled {
		m.filter = domain.FilterSearch
	} else {
		m.filter = domain.FilterInstalled
	}
	m.executor.SetFilter(m.filter)

	if _, ok := m.coordinator.Refresh(); ok {
		m.setStatus(fmt.Sprintf("Searching %s packages for %q...", m.filter, m.coordinator.Text()), views.StatusLoading)
	}
}

func (m *Model) finishSearch(done search.Update) {
	msg := fmt.Sprintf("%d results for %q in %s", done.Results, done.Query, done.Duration.Round(time.Millisecond))
	if done.Results == 1 {
		msg = fmt.Sprintf("1 result for %q in %s", done.Query, done.Duration.Round(time.Millisecond))
	}
	if done.Failed > 0 {
		failures := m.coordinator.Failures()
		names := make([]string, 0, len(failures))
		for _, f := range failures {
			names = append(names, f.Plugin)
		}
		m.setStatus(fmt.Sprintf("%s (failed: %v)", msg, names), views.StatusWarning)
		return
	}
	m.setStatus(msg, views.StatusSuccess)
}

func (m *Model) showDetails() tea.Cmd {
	item, ok := m.results.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return detailsMsg{id: item.ID, err: m.pager.ShowDetails(item)}
	}
}

func (m *Model) openHomepage() tea.Cmd {
	item, ok := m.results.Selected()
	if !ok {
		return nil
	}
	if item.Homepage == "" {
		m.setStatus(fmt.Sprintf("%s has no homepage", item.DisplayName()), views.StatusWarning)
		return nil
	}
	url := item.Homepage
	return func() tea.Msg {
		return browserMsg{url: url, err: m.pager.OpenURL(url)}
	}
}

// handleEvent reacts to domain events forwarded from the bus
func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case domain.CatalogReloadedEvent:
		if e.Err != nil {
			m.setStatus(fmt.Sprintf("Catalog reload failed: %v", e.Err), views.StatusWarning)
			return nil
		}
		if _, ok := m.coordinator.Refresh(); ok {
			m.setStatus(fmt.Sprintf("Catalog reloaded (%d entries), searching again...", e.Entries), views.StatusLoading)
		}
	case domain.ErrorEvent:
		m.setStatus(e.Message, views.StatusError)
	}
	return nil
}

func (m *Model) setStatus(msg string, kind views.StatusKind) {
	m.status = msg
	m.statusKind = kind
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	m.viewModel.SetDimensions(m.width, m.height)
	m.viewModel.SetSearch(m.searchVisible, m.input.View(), m.coordinator.Text())
	if m.filter == domain.FilterInstalled {
		m.viewModel.SetFilter("installed")
	} else {
		m.viewModel.SetFilter("")
	}
	m.viewModel.SetSearching(m.coordinator.Searching(), m.spinner.View())
	m.viewModel.SetStatus(m.status, m.statusKind)
	m.viewModel.SetHelp(m.config.UI.ShowHelp, m.help.View(m.keys))

	return m.renderer.Render(m.viewModel.BuildViewState())
}
