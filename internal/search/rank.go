package search

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/braindock/internal/models"
)

const (
	FieldTitle   = "title"
	FieldBody    = "body"
	FieldTags    = "tags"
	FieldPayload = "payload"
)

// Score tiers.
const (
	TierWord      = 3
	TierPrefix    = 2
	TierSubstring = 1
)

// MinScore is the relevance floor. The recency boost alone stays below it.
const MinScore = 1.0

// Result is one ranked hit.
type Result struct {
	Entry         models.Entry `json:"entry"`
	Score         float64      `json:"score"`
	MatchedFields []string     `json:"matched_fields"`
}

// Search ranks entries against query as of now, deriving documents on the fly.
func Search(entries []models.Entry, query string, now time.Time) []Result {
	return Rank(entries, nil, query, now)
}

// Rank scores entries using the stored documents in index, falling back to
// BuildDocument for entries missing from it. Only results scoring at least
// MinScore are returned, best first; ties go to the newer occurred_at and
// then to the greater id.
func Rank(entries []models.Entry, index map[string]Document, query string, now time.Time) []Result {
	q := newQuery(query)
	if q.empty() {
		return nil
	}
	var out []Result
	for _, e := range entries {
		doc, ok := index[e.ID]
		if !ok {
			doc = BuildDocument(e)
		}
		base := q.best(doc.Fields())
		if base == 0 {
			continue
		}
		score := float64(base) + RecencyBoost(e.OccurredAt, now)
		if score < MinScore {
			continue
		}
		out = append(out, Result{Entry: e, Score: score, MatchedFields: q.matchedFields(e)})
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		if c := b.Entry.OccurredAt.Compare(a.Entry.OccurredAt); c != 0 {
			return c
		}
		return strings.Compare(b.Entry.ID, a.Entry.ID)
	})
	return out
}

// RecencyBoost is 1/log2(ageHours+2) with ageHours floored at 1, so it lies
// in (0, 0.631] and decays with age.
func RecencyBoost(occurredAt, now time.Time) float64 {
	age := math.Max(1, now.Sub(occurredAt).Hours())
	return 1 / math.Log2(age+2)
}

type query struct {
	text   string
	joined string
}

func newQuery(s string) query {
	return query{
		text:   strings.TrimSpace(Normalize(s)),
		joined: strings.Join(Tokenize(s), " "),
	}
}

func (q query) empty() bool { return q.text == "" }

// tier scores one normalised field.
func (q query) tier(field string) int {
	tokens := Tokenize(field)
	joined := " " + strings.Join(tokens, " ") + " "
	switch {
	case strings.TrimSpace(field) == q.text:
		return TierWord
	case q.joined != "" && strings.Contains(joined, " "+q.joined+" "):
		return TierWord
	case q.joined != "" && strings.Contains(joined, " "+q.joined):
		return TierPrefix
	case strings.Contains(field, q.text):
		return TierSubstring
	case q.joined != "" && strings.Contains(joined, q.joined):
		return TierSubstring
	}
	return 0
}

// best is the highest tier over fields.
func (q query) best(fields []string) int {
	top := 0
	for _, f := range fields {
		top = max(top, q.tier(f))
	}
	return top
}

func (q query) matches(values ...string) bool {
	for _, v := range values {
		if q.tier(Normalize(v)) > 0 {
			return true
		}
	}
	return false
}

func (q query) matchedFields(e models.Entry) []string {
	fields := make([]string, 0, 3)
	if q.matches(e.Title) {
		fields = append(fields, FieldTitle)
	}
	if q.matches(e.Body) {
		fields = append(fields, FieldBody)
	}
	if q.matches(e.Tags...) {
		fields = append(fields, FieldTags)
	}
	if len(fields) == 0 && q.matches(PayloadValues(e.Payload)...) {
		fields = append(fields, FieldPayload)
	}
	return fields
}
