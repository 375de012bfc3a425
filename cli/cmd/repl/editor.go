package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/minipy/log"
	"github.com/ardnew/minipy/pkg"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-run-retry loop. It
// writes the session transcript to a temporary file, opens the user's editor,
// and runs the result in a fresh session. If the edited program fails, the
// user is asked whether to edit it again; declining ends the REPL.
type editCommand struct {
	session *Session
	ctxFunc func() context.Context
	logger  log.Logger
	loaded  bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] if the user
// declines to fix a failing program.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()
	content := c.session.Transcript()

	f, err := os.CreateTemp("", pkg.Name+"-repl-*"+pkg.SourceExt)
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		edited, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path)
		if err != nil {
			return err
		}

		if strings.TrimSpace(edited) == "" {
			return nil
		}

		res := c.session.Load(ctx, edited)

		c.logger.TraceContext(ctx, "editor run attempt",
			slog.Int("content_length", len(edited)),
			slog.Bool("success", res.Err == nil),
		)

		if res.Err == nil {
			c.loaded = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", res.Echo())
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = edited
	}
}

// runEditor opens $EDITOR (or vi) on path and returns the edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
