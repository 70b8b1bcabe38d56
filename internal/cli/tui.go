package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/lock"
	"softcenter/internal/logging"
	"softcenter/internal/ui"
)

// isTerminal reports whether f is an interactive terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runTUI(ctx context.Context, opts *globalOptions) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("softcenter needs a terminal; use 'softcenter search QUERY' for plain output")
	}

	l, err := lock.Acquire(lock.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = l.Release() }()

	a, err := newApp(opts, logging.ModeTUI)
	if err != nil {
		return err
	}
	defer a.Close()
	a.logger.Debug("instance lock held", "path", l.Path())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.register(ctx, true)
	a.watchCatalog(ctx)

	executor := a.newExecutor()
	defer a.stopExecutor(executor)

	model := ui.NewModel(executor, a.cfg, a.bus, a.logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	forwardEvents(a, p)

	a.logger.Info("starting UI", "plugins", len(a.registry.Plugins()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run UI: %w", err)
	}
	a.logger.Info("UI exited")
	return nil
}

// forwardEvents sends the events the UI reacts to into the program
func forwardEvents(a *app, p *tea.Program) {
	a.bus.Subscribe(eventbus.EventCatalogReloaded, func(ev eventbus.DomainEvent) {
		if e, ok := ev.(domain.CatalogReloadedEvent); ok && e.Err == nil {
			a.purgeCatalogCache()
		}
		p.Send(ui.EventMsg{Event: ev})
	})
	a.bus.Subscribe(eventbus.EventError, func(ev eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: ev})
	})
}
