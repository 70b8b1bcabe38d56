package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"softcenter/internal/logging"
	"softcenter/internal/plugins"
)

func newPluginsCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "Show which package backends are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlugins(cmd.Context(), cmd.OutOrStdout(), global)
		},
	}
}

func runPlugins(ctx context.Context, out io.Writer, global *globalOptions) error {
	a, err := newApp(global, logging.ModeCLI)
	if err != nil {
		return err
	}
	defer a.Close()

	regs := a.register(ctx, false)
	if len(regs) == 0 {
		fmt.Fprintln(out, "No plugins are enabled.")
		return nil
	}
	fmt.Fprintln(out, pluginTable(regs))
	return nil
}

// managed is implemented by plugins that front a specific tool
type managed interface {
	Manager() string
}

func pluginTable(regs []plugins.Registration) string {
	title := cases.Title(language.Und)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PLUGIN", "STATUS", "DETAIL")
	for _, reg := range regs {
		status, detail := "available", ""
		if !reg.OK() {
			status = "unavailable"
			if reg.Err != nil {
				detail = reg.Err.Error()
			}
		} else if m, ok := reg.Plugin.(managed); ok {
			detail = "using " + m.Manager()
		}
		t.Row(title.String(reg.Name), status, detail)
	}
	return t.String()
}
