// Package cmdrun runs package manager commands and streams their output to
// a parser, killing the process as soon as the parser gives up.
package cmdrun

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is an external program whose stdout is parsed as it streams
type Command struct {
	Argv []string
	// NoMatch is an exit code meaning "nothing found" rather than failure
	NoMatch int
}

// Run starts c and hands its stdout to parse. When parse returns early the
// process is killed through the command context.
func Run(ctx context.Context, c Command, parse func(io.Reader) error) error {
	if len(c.Argv) == 0 {
		return errors.New("empty command")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open %s output: %w", c.Argv[0], err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", c.Argv[0], err)
	}

	if err := parse(out); err != nil {
		cancel()
		_ = cmd.Wait()
		return err
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if c.NoMatch != 0 && errors.As(err, &exitErr) && exitErr.ExitCode() == c.NoMatch {
			return nil
		}
		return fmt.Errorf("%s failed: %w: %s", c.Argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ScanLines calls each for every line of r until it returns an error
func ScanLines(r io.Reader, each func(line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := each(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}
