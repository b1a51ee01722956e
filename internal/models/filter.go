package models

import (
	"slices"
	"time"
)

// Filter narrows an entry listing. All set conditions must hold.
type Filter struct {
	Types       []EntryType `json:"types,omitempty"`
	From        *time.Time  `json:"from,omitempty"`
	To          *time.Time  `json:"to,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Sensitivity Sensitivity `json:"sensitivity,omitempty"`
	// Limit <= 0 means "up to the configured cap".
	Limit int `json:"limit,omitempty"`
}

// Match applies every condition except Limit to e. The time range is
// inclusive on both ends.
func (f Filter) Match(e Entry) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	if f.Sensitivity != "" && e.Sensitivity != f.Sensitivity {
		return false
	}
	return e.HasTags(f.Tags)
}

// EffectiveLimit clamps the requested limit to maxLimit.
func (f Filter) EffectiveLimit(maxLimit int) int {
	if f.Limit <= 0 || f.Limit > maxLimit {
		return maxLimit
	}
	return f.Limit
}

// Apply filters, sorts (occurred_at desc, id desc) and truncates entries.
// Stores that cannot push the filter down use it on their result set.
func (f Filter) Apply(entries []Entry, maxLimit int) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	SortByOccurredDesc(out)
	if limit := f.EffectiveLimit(maxLimit); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func SortByOccurredDesc(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
