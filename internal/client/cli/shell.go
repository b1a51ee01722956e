package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell with background sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app := opts.app
			done := make(chan struct{}, 2)
			if app.engine.HasRemote() {
				go func() {
					app.StartOnlineStatusWatcher(ctx, app.config.SyncInterval)
					done <- struct{}{}
				}()
				go func() {
					_ = app.engine.Run(ctx)
					done <- struct{}{}
				}()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "braindock shell (type 'help' for commands, 'exit' to leave)")
			dispatch := func(ctx context.Context, args []string) error {
				sub := NewRootCommand(&RootOptions{app: app})
				if opts.JSON {
					args = append(args, "--json")
				}
				sub.SetArgs(args)
				sub.SetIn(cmd.InOrStdin())
				sub.SetOut(out)
				sub.SetErr(cmd.ErrOrStderr())
				return sub.ExecuteContext(ctx)
			}
			runREPL(ctx, dispatch, func() string { return string(app.Mode()) }, bufio.NewScanner(cmd.InOrStdin()), out)

			cancel()
			if app.engine.HasRemote() {
				<-done
				<-done
			}
			return nil
		},
	}
}

// runREPL reads lines from scanner and hands their words to dispatch until
// EOF, "exit" or "quit". Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, dispatch func(context.Context, []string) error, statusFn func() string, scanner *bufio.Scanner, out io.Writer) {
	for {
		fmt.Fprintf(out, "braindock (%s)> ", statusFn())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		case "shell":
			fmt.Fprintln(out, "already in the shell")
			continue
		}
		if err := dispatch(ctx, args); err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

// splitArgs splits a shell line on spaces, keeping single- or double-quoted
// runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
