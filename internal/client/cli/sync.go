package cli

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/braindock/internal/client/services"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/spf13/cobra"
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	var (
		timeout     time.Duration
		retryFailed bool
		entryID     string
	)
	cmd := &cobra.Command{
		Use:   "sync [queue-id]",
		Short: "Deliver pending entries to the remote authority",
		Long: `Deliver pending entries to the remote authority.

Without an argument every pending queue item is drained. Failed items are
left alone unless --retry-failed is given. With --entry only that entry is
queued (a failed delivery is moved back to pending) and drained.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine := opts.app.engine
			if entryID != "" {
				if len(args) == 1 {
					return common.Invalid("entry", "cannot be combined with a queue id")
				}
				item, err := engine.Enqueue(ctx, entryID)
				if err != nil {
					return err
				}
				args = []string{item.ID}
			}
			if retryFailed {
				if _, err := engine.RetryFailed(ctx); err != nil {
					return err
				}
			}
			if len(args) == 1 {
				res, err := engine.Drain(ctx, args[0], timeout)
				if err != nil {
					return err
				}
				if err := opts.printer(cmd).drains([]services.DrainResult{*res}); err != nil {
					return err
				}
				return res.Err
			}
			results, err := engine.DrainPending(ctx)
			if err != nil {
				return err
			}
			return opts.printer(cmd).drains(results)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "delivery timeout (default from config)")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "move failed items back to pending first")
	cmd.Flags().StringVar(&entryID, "entry", "", "queue and drain only this entry")
	return cmd
}

func newPullCommand(opts *RootOptions) *cobra.Command {
	var filter filterFlags
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Merge remote entries into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := filter.build()
			if err != nil {
				return err
			}
			res, err := opts.app.engine.Pull(cmd.Context(), f)
			if err != nil {
				return err
			}
			return opts.printer(cmd).pull(res)
		},
	}
	filter.register(cmd.Flags())
	return cmd
}

func newQueueCommand(opts *RootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List sync queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := opts.app.engine.ListSyncQueue(cmd.Context(), models.SyncStatus(status))
			if err != nil {
				return err
			}
			return opts.printer(cmd).queue(items)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "pending, syncing, synced or failed")
	return cmd
}

func newRetryCommand(opts *RootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "retry [queue-id]",
		Short: "Move failed queue items back to pending",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				items, err := opts.app.engine.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				return opts.printer(cmd).queue(items)
			}
			item, err := opts.app.engine.Retry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.printer(cmd).item(item)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "retry every failed item")
	return cmd
}

func newMarkSyncedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-synced <queue-id> <remote-id>",
		Short: "Record a delivery made outside braindock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.app.engine.MarkSynced(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return opts.printer(cmd).item(item)
		},
	}
}

func newMarkFailedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-failed <queue-id> <error...>",
		Short: "Record a failed delivery made outside braindock",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.app.engine.MarkSyncFailed(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return opts.printer(cmd).item(item)
		},
	}
}
