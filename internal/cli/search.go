package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"softcenter/internal/domain"
	"softcenter/internal/logging"
	"softcenter/internal/search"
)

type searchOptions struct {
	installed bool
	timeout   time.Duration
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search every backend once and print the results",
		Long: `Search every enabled backend for QUERY and print one line per result:

  ID - NAME [SOURCE]

Results are printed in backend order. Backends that fail are reported on
stderr and do not stop the others.

Examples:
  softcenter search vim
  softcenter search --installed python`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := domain.NormalizeQuery(strings.Join(args, " "))
			if query == "" {
				return errors.New("empty query")
			}
			return runSearch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), global, query, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.installed, "installed", "i", false, "Only list installed packages")
	cmd.Flags().DurationVarP(&opts.timeout, "timeout", "t", time.Minute, "Give up after this long (0 waits forever)")

	return cmd
}

func runSearch(ctx context.Context, out, errOut io.Writer, global *globalOptions, query string, opts searchOptions) error {
	a, err := newApp(global, logging.ModeCLI)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	a.register(ctx, false)
	if len(a.registry.Plugins()) == 0 {
		return errors.New("no package backends are available on this system")
	}

	executor := a.newExecutor()
	defer a.stopExecutor(executor)
	if opts.installed {
		executor.SetFilter(domain.FilterInstalled)
	}

	res, err := search.Collect(ctx, executor, query)
	printResults(out, res)
	for _, f := range res.Failures {
		fmt.Fprintf(errOut, "warning: %s failed: %v\n", f.Plugin, f.Err)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("search for %q timed out after %s with %d results", query, opts.timeout, len(res.Items))
		}
		return err
	}

	a.logger.Info("search finished", "query", query, "results", res.Done.Results, "failed", res.Done.Failed, "took", res.Done.Duration)
	return nil
}

func printResults(w io.Writer, res search.Result) {
	for _, it := range res.Items {
		line := fmt.Sprintf("%s - %s [%s]", it.ID, it.DisplayName(), it.Source)
		if it.Version != "" {
			line += " " + it.Version
		}
		if it.Installed {
			line += " (installed)"
		}
		fmt.Fprintln(w, line)
	}
}
