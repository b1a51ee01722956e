package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newGetCommand(opts *RootOptions) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			get := opts.app.engine.GetEntry
			if remote {
				get = opts.app.engine.GetRemote
			}
			e, err := get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.printer(cmd).entry(e)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "read from the remote authority")
	return cmd
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var (
		filter filterFlags
		remote bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := filter.build()
			if err != nil {
				return err
			}
			list := opts.app.engine.ListEntries
			if remote {
				list = opts.app.engine.ListRemote
			}
			entries, err := list(cmd.Context(), f)
			if err != nil {
				return err
			}
			return opts.printer(cmd).entries(entries)
		},
	}
	filter.register(cmd.Flags())
	cmd.Flags().BoolVar(&remote, "remote", false, "list the remote authority")
	return cmd
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	var (
		filter filterFlags
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Rank entries by relevance to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.build()
			if err != nil {
				return err
			}
			search := opts.app.engine.SearchEntries
			if remote {
				search = opts.app.engine.SearchRemote
			}
			results, err := search(cmd.Context(), strings.Join(args, " "), f)
			if err != nil {
				return err
			}
			return opts.printer(cmd).results(results)
		},
	}
	filter.register(cmd.Flags())
	cmd.Flags().BoolVar(&remote, "remote", false, "search the remote authority")
	return cmd
}

func newHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [entry-id]",
		Short: "Show the change history of an entry, or of all entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			records, err := opts.app.engine.ListHistory(cmd.Context(), id)
			if err != nil {
				return err
			}
			return opts.printer(cmd).history(records)
		},
	}
}
