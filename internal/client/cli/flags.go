package cli

import (
	"time"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/spf13/pflag"
)

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseTime accepts RFC 3339 or a local date with optional minutes.
func parseTime(field, s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, common.Invalid(field, "cannot parse time %q", s)
}

type filterFlags struct {
	types       []string
	from, to    string
	tags        []string
	sensitivity string
	limit       int
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&f.types, "type", "t", nil, "only these entry types")
	fs.StringVar(&f.from, "from", "", "occurred at or after")
	fs.StringVar(&f.to, "to", "", "occurred at or before")
	fs.StringSliceVar(&f.tags, "tag", nil, "require every tag")
	fs.StringVar(&f.sensitivity, "sensitivity", "", "only this sensitivity")
	fs.IntVarP(&f.limit, "limit", "n", 0, "maximum number of results")
}

func (f *filterFlags) build() (models.Filter, error) {
	out := models.Filter{Tags: models.NormalizeTags(f.tags), Limit: f.limit}
	for _, s := range f.types {
		t, err := models.ParseEntryType(s)
		if err != nil {
			return out, err
		}
		out.Types = append(out.Types, t)
	}
	if f.from != "" {
		t, err := parseTime("from", f.from)
		if err != nil {
			return out, err
		}
		out.From = &t
	}
	if f.to != "" {
		t, err := parseTime("to", f.to)
		if err != nil {
			return out, err
		}
		out.To = &t
	}
	if out.From != nil && out.To != nil && out.To.Before(*out.From) {
		return out, common.Invalid("to", "before from")
	}
	if f.sensitivity != "" {
		s, err := models.ParseSensitivity(f.sensitivity)
		if err != nil {
			return out, err
		}
		out.Sensitivity = s
	}
	if f.limit < 0 {
		return out, common.Invalid("limit", "must not be negative")
	}
	return out, nil
}
