package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/braindock/internal/client/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the App shared by the commands.
type RootOptions struct {
	JSON   bool
	Getenv func(string) string

	app *App
}

func (o *RootOptions) getenv(key string) string {
	if o.Getenv == nil {
		return ""
	}
	return o.Getenv(key)
}

// NewRootCommand creates the braindock command tree. When opts already
// carries an App (inside the shell), configuration is not reloaded.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "braindock",
		Short:         "Offline-first note capture with background sync",
		Long:          "Capture journal entries, todos, learnings, thoughts, meetings and wishlist items locally and reconcile them with a remote authority.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.app != nil {
				return nil
			}
			fs := cmd.Flags()
			path, err := fs.GetString(config.FlagConfig)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path, opts.getenv)
			if err != nil {
				return err
			}
			if err := cfg.ApplyFlags(fs); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print results as JSON")

	cmd.AddCommand(
		newCaptureCommand(opts),
		newAddCommand(opts),
		newGetCommand(opts),
		newListCommand(opts),
		newSearchCommand(opts),
		newSyncCommand(opts),
		newPullCommand(opts),
		newQueueCommand(opts),
		newRetryCommand(opts),
		newMarkSyncedCommand(opts),
		newMarkFailedCommand(opts),
		newHistoryCommand(opts),
		newWatchCommand(opts),
		newShellCommand(opts),
	)
	return cmd
}

func (o *RootOptions) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), o.JSON)
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	opts := &RootOptions{Getenv: os.Getenv}
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if opts.app != nil {
		if cerr := opts.app.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
	}
	return ExitCode(err)
}
