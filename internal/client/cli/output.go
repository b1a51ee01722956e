package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/braindock/internal/client/services"
	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/dmitrijs2005/braindock/internal/search"
	"golang.org/x/term"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidTransition):
		return ExitInvalidInput
	}
	return ExitFailure
}

// isTerminal is a seam for term.IsTerminal on the output stream.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const timeLayout = "2006-01-02 15:04"

// printer renders command results either as one JSON document per result
// or as aligned text.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, forceJSON bool) *printer {
	return &printer{w: w, json: forceJSON || !isTerminal(w)}
}

func (p *printer) emitJSON(v any) error {
	return json.NewEncoder(p.w).Encode(v)
}

func (p *printer) table(header string, rows func(w io.Writer)) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func short(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func (p *printer) entry(e *models.Entry) error {
	if p.json {
		return p.emitJSON(e)
	}
	payload, err := models.MarshalPayload(e.Payload)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", e.ID)
	fmt.Fprintf(tw, "type:\t%s\n", e.Type)
	fmt.Fprintf(tw, "title:\t%s\n", e.Title)
	fmt.Fprintf(tw, "occurred:\t%s\n", stamp(e.OccurredAt))
	fmt.Fprintf(tw, "sensitivity:\t%s\n", e.Sensitivity)
	fmt.Fprintf(tw, "tags:\t%s\n", strings.Join(e.Tags, ", "))
	fmt.Fprintf(tw, "status:\t%s\n", e.SyncStatus)
	if e.RemoteID != "" {
		fmt.Fprintf(tw, "remote id:\t%s\n", e.RemoteID)
	}
	fmt.Fprintf(tw, "updated:\t%s\n", stamp(e.UpdatedAt))
	fmt.Fprintf(tw, "payload:\t%s\n", payload)
	if err := tw.Flush(); err != nil {
		return err
	}
	if e.Body != "" {
		fmt.Fprintf(p.w, "\n%s\n", e.Body)
	}
	return nil
}

func (p *printer) entries(list []models.Entry) error {
	if p.json {
		return p.emitJSON(list)
	}
	return p.table("ID\tTYPE\tOCCURRED\tSTATUS\tTITLE", func(w io.Writer) {
		for _, e := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Type, stamp(e.OccurredAt), e.SyncStatus, short(e.Title, 60))
		}
	})
}

func (p *printer) results(list []search.Result) error {
	if p.json {
		return p.emitJSON(list)
	}
	return p.table("SCORE\tID\tTYPE\tMATCHED\tTITLE", func(w io.Writer) {
		for _, r := range list {
			fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\t%s\n", r.Score, r.Entry.ID, r.Entry.Type, strings.Join(r.MatchedFields, ","), short(r.Entry.Title, 60))
		}
	})
}

func (p *printer) capture(res *services.CaptureResult) error {
	if p.json {
		return p.emitJSON(res)
	}
	verb := "captured"
	if res.DryRun {
		verb = "would capture"
	}
	fmt.Fprintf(p.w, "%s %s %s (sensitivity %s, pii %.2f)\n", verb, res.Entry.Type, res.Entry.ID, res.Entry.Sensitivity, res.PIIScore)
	return nil
}

func (p *printer) queue(items []models.SyncQueueItem) error {
	if p.json {
		return p.emitJSON(items)
	}
	return p.table("ID\tENTRY\tSTATUS\tATTEMPTS\tUPDATED\tERROR", func(w io.Writer) {
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.EntryID, it.Status, it.Attempts, stamp(it.UpdatedAt), short(it.LastError, 60))
		}
	})
}

func (p *printer) item(it *models.SyncQueueItem) error {
	return p.queue([]models.SyncQueueItem{*it})
}

func (p *printer) drains(list []services.DrainResult) error {
	if p.json {
		return p.emitJSON(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(p.w, "nothing to sync")
		return nil
	}
	return p.table("QUEUE\tENTRY\tSTATUS\tDETAIL", func(w io.Writer) {
		for _, r := range list {
			detail := r.RemoteID
			if r.Error != "" {
				detail = short(r.Error, 60)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.QueueID, r.EntryID, r.Status, detail)
		}
	})
}

func (p *printer) history(list []models.HistoryRecord) error {
	if p.json {
		return p.emitJSON(list)
	}
	return p.table("CREATED\tSOURCE\tENTRY\tSTATUS", func(w io.Writer) {
		for _, h := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", stamp(h.CreatedAt), h.Source, h.EntryID, snapshotStatus(h.AfterJSON))
		}
	})
}

// snapshotStatus extracts sync_status from a history snapshot.
func snapshotStatus(snapshot string) string {
	var v struct {
		SyncStatus string `json:"sync_status"`
	}
	if err := json.Unmarshal([]byte(snapshot), &v); err != nil || v.SyncStatus == "" {
		return "-"
	}
	return v.SyncStatus
}

func (p *printer) pull(res *services.PullResult) error {
	if p.json {
		return p.emitJSON(res)
	}
	fmt.Fprintf(p.w, "fetched %d, applied %d, kept %d\n", res.Fetched, res.Applied, res.Kept)
	return nil
}
