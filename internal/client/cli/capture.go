package cli

import (
	"io"
	"strings"

	"github.com/dmitrijs2005/braindock/internal/client/services"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/spf13/cobra"
)

func newCaptureCommand(opts *RootOptions) *cobra.Command {
	var (
		typ, sensitivity, occurred string
		tags                       []string
		fromStdin, dryRun          bool
	)
	cmd := &cobra.Command{
		Use:   "capture [text...]",
		Short: "Capture free text as an entry",
		Long: `Capture free text as an entry.

The type is detected from the text unless --type is given: links become
learning entries, task-like lines become todos and anything else is a
thought. The sensitivity is raised to "sensitive" when the text looks like
it carries personal data, unless --sensitivity is given.`,
		Example: `  braindock capture "TODO renew passport"
  echo "notes from the retro" | braindock capture --stdin --type meeting`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if fromStdin {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}

			in := services.CaptureInput{Type: typ, Text: text, Tags: tags, DryRun: dryRun}
			if sensitivity != "" {
				s, err := models.ParseSensitivity(sensitivity)
				if err != nil {
					return err
				}
				in.Sensitivity = s
			}
			if occurred != "" {
				t, err := parseTime("occurred_at", occurred)
				if err != nil {
					return err
				}
				in.OccurredAt = &t
			}

			res, err := opts.app.engine.Capture(cmd.Context(), in)
			if err != nil {
				return err
			}
			return opts.printer(cmd).capture(res)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&typ, "type", "t", "auto", "entry type or auto")
	fs.StringVar(&sensitivity, "sensitivity", "", "public, internal or sensitive")
	fs.StringVar(&occurred, "occurred-at", "", "when it happened (default now)")
	fs.StringSliceVar(&tags, "tag", nil, "tag to attach, repeatable")
	fs.BoolVar(&fromStdin, "stdin", false, "read the text from stdin")
	fs.BoolVar(&dryRun, "dry-run", false, "validate and print without storing")
	return cmd
}

func newAddCommand(opts *RootOptions) *cobra.Command {
	var (
		id, typ, title, body, payload, sensitivity, occurred string
		tags                                                 []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry with an explicit type and payload",
		Example: `  braindock add --type todo --title "file taxes" --payload '{"details":"file taxes","status":"todo","priority":2}'
  braindock add --type thought --body "a plain note"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := models.ParseEntryType(typ)
			if err != nil {
				return err
			}
			in := models.EntryInput{ID: id, Type: t, Title: title, Body: body, Tags: tags}

			switch {
			case payload != "":
				if in.Payload, err = models.DecodePayload(t, []byte(payload)); err != nil {
					return common.Invalid("payload", "%v", err)
				}
			default:
				text := body
				if text == "" {
					text = title
				}
				if in.Payload, err = models.DefaultPayload(t, text); err != nil {
					return err
				}
			}
			if in.Title == "" {
				in.Title = models.CaptureTitle(body)
			}
			if sensitivity != "" {
				if in.Sensitivity, err = models.ParseSensitivity(sensitivity); err != nil {
					return err
				}
			}
			if occurred != "" {
				at, err := parseTime("occurred_at", occurred)
				if err != nil {
					return err
				}
				in.OccurredAt = &at
			}

			entry, err := opts.app.engine.CreateEntry(cmd.Context(), in)
			if err != nil {
				return err
			}
			return opts.printer(cmd).entry(entry)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&id, "id", "", "entry id (default a new UUIDv7)")
	fs.StringVarP(&typ, "type", "t", "", "entry type")
	fs.StringVar(&title, "title", "", "title")
	fs.StringVar(&body, "body", "", "body text")
	fs.StringVar(&payload, "payload", "", "type-specific payload as JSON")
	fs.StringVar(&sensitivity, "sensitivity", "", "public, internal or sensitive (default internal)")
	fs.StringVar(&occurred, "occurred-at", "", "when it happened (default now)")
	fs.StringSliceVar(&tags, "tag", nil, "tag to attach, repeatable")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
