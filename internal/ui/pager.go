package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
	"github.com/toqueteos/webbrowser"

	"softcenter/internal/config"
	"softcenter/internal/domain"
)

// Pager shows package details in less or the built-in ov viewer and opens homepages
type Pager struct {
	program  *tea.Program // reference to Bubble Tea program for terminal management
	mode     string
	lookPath func(file string) (string, error)
	openURL  func(url string) error
}

// NewPager creates a new Pager using mode, one of the config.Pager* values
func NewPager(mode string) *Pager {
	if mode == "" {
		mode = config.PagerAuto
	}
	return &Pager{mode: mode, lookPath: exec.LookPath, openURL: webbrowser.Open}
}

// SetProgram sets the program reference for terminal management
func (p *Pager) SetProgram(prog *tea.Program) {
	p.program = prog
}

// viewer names the pager ShowDetails will run
func (p *Pager) viewer() string {
	switch p.mode {
	case config.PagerLess, config.PagerBuiltin:
		return p.mode
	}
	if _, err := p.lookPath("less"); err == nil {
		return config.PagerLess
	}
	return config.PagerBuiltin
}

// ShowDetails pages the details of item
func (p *Pager) ShowDetails(item domain.Item) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}
	content := DetailsText(item)
	if p.viewer() == config.PagerLess {
		return p.runLess(strings.NewReader(content))
	}
	return p.runViewer(strings.NewReader(content))
}

// OpenURL opens url in the user's browser
func (p *Pager) OpenURL(url string) error {
	return p.openURL(url)
}

// runLess executes `less -R`, feeding content via r, handling terminal release/restore
func (p *Pager) runLess(r io.Reader) error {
	if _, err := p.lookPath("less"); err != nil {
		return fmt.Errorf("less not found in PATH")
	}
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		fmt.Print("\x1b[2J\x1b[H")
		time.Sleep(150 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()
	lessCmd := exec.Command("less", "-R")
	lessCmd.Stdin = r
	lessCmd.Stdout = os.Stdout
	lessCmd.Stderr = os.Stderr
	return lessCmd.Run()
}

// runViewer pages r with oviewer in-process
func (p *Pager) runViewer(r io.Reader) error {
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// give ov time to put the screen back before Bubble Tea takes over
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(r)
	if err != nil {
		return err
	}

	cfg := oviewer.NewConfig()
	cfg.IsWriteOnExit = false
	cfg.IsWriteOriginal = false
	root.SetConfig(cfg)

	return root.Run()
}

// DetailsText renders an item for the pager
func DetailsText(item domain.Item) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(item.DisplayName()))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}
	field("ID", item.ID)
	field("Version", item.Version)
	field("Source", item.Source)
	if item.Installed {
		field("Status", "installed")
	} else {
		field("Status", "available")
	}
	field("Homepage", item.Homepage)

	if item.Summary != "" {
		b.WriteString("\n")
		b.WriteString(item.Summary)
		b.WriteString("\n")
	}
	return b.String()
}
