package search

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/braindock/internal/models"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func thought(id, title, body string, occurred time.Time, tags ...string) models.Entry {
	return models.Entry{
		ID:         id,
		Type:       models.EntryTypeThought,
		Title:      title,
		Body:       body,
		Tags:       tags,
		OccurredAt: occurred,
		Payload:    models.ThoughtPayload{Note: "-"},
	}
}

func resultIDs(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Entry.ID
	}
	return out
}

func TestSearch_RecencyBreaksTies(t *testing.T) {
	entries := []models.Entry{
		thought("old", "", "release notes", now.AddDate(0, 0, -30)),
		thought("new", "", "release notes", now),
	}
	got := Search(entries, "release", now)
	require.Equal(t, []string{"new", "old"}, resultIDs(got))
	require.Greater(t, got[0].Score, got[1].Score)
}

func TestSearch_WholeWordBeatsSubstring(t *testing.T) {
	entries := []models.Entry{
		thought("sub", "", "feedback loop", now),
		thought("word", "", "use backoff strategy", now.AddDate(0, 0, -30)),
	}
	got := Search(entries, "backoff", now)
	require.NotEmpty(t, got)
	require.Equal(t, "word", got[0].Entry.ID)

	got = Search(entries, "back", now)
	require.Equal(t, []string{"word", "sub"}, resultIDs(got))
	require.InDelta(t, TierPrefix, got[0].Score, 1)
	require.Less(t, got[1].Score, float64(TierPrefix))
}

func TestSearch_Tiers(t *testing.T) {
	old := now.AddDate(-5, 0, 0)
	tests := []struct {
		name  string
		body  string
		query string
		tier  int
	}{
		{"whole string", "backoff", "BACKOFF", TierWord},
		{"whole word sequence", "use exponential backoff here", "exponential backoff", TierWord},
		{"token prefix", "use backoffs", "backoff", TierPrefix},
		{"substring", "feedback", "edba", TierSubstring},
		{"japanese substring", "東京でラーメン", "ラーメン", TierSubstring},
		{"none", "nothing here", "zebra", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search([]models.Entry{thought("x", "", tt.body, old)}, tt.query, now)
			if tt.tier == 0 {
				require.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			require.GreaterOrEqual(t, got[0].Score, float64(tt.tier))
			require.Less(t, got[0].Score, float64(tt.tier)+1)
		})
	}
}

func TestSearch_FloorExcludesRecencyOnly(t *testing.T) {
	entries := []models.Entry{thought("a", "title", "body", now)}
	require.Empty(t, Search(entries, "unrelated", now))
	require.Empty(t, Search(entries, "   ", now))
}

func TestSearch_MatchedFields(t *testing.T) {
	wish := models.Entry{
		ID:         "w",
		Type:       models.EntryTypeWishlist,
		Title:      "desk",
		OccurredAt: now,
		Payload:    models.WishlistPayload{Item: "standing desk", URL: "https://shop.example/desk"},
	}
	meeting := models.Entry{
		ID:         "m",
		Type:       models.EntryTypeMeeting,
		Title:      "weekly",
		OccurredAt: now,
		Payload:    models.MeetingPayload{Summary: "sync", Decisions: []string{"adopt postgres"}},
	}
	tagged := thought("t", "plan", "write plan", now, "planning")

	got := Search([]models.Entry{wish}, "desk", now)
	require.Equal(t, []string{FieldTitle}, got[0].MatchedFields)

	got = Search([]models.Entry{meeting}, "postgres", now)
	require.Equal(t, []string{FieldPayload}, got[0].MatchedFields)

	got = Search([]models.Entry{tagged}, "plan", now)
	require.Equal(t, []string{FieldTitle, FieldBody, FieldTags}, got[0].MatchedFields)
}

func TestSearch_DoesNotMatchAcrossFields(t *testing.T) {
	entries := []models.Entry{
		thought("split", "use", "backoff strategy", now),
		thought("tags", "", "", now, "red", "car"),
	}
	require.Empty(t, Search(entries, "use backoff", now))
	require.Empty(t, Search(entries, "red car", now))

	got := Search(entries, "backoff", now)
	require.Len(t, got, 1)
	require.Equal(t, []string{FieldBody}, got[0].MatchedFields)
}

func TestSearch_EveryResultNamesAField(t *testing.T) {
	entries := []models.Entry{
		thought("a", "weekly sync", "notes", now, "team"),
		thought("b", "plan", "sync the team calendar", now.Add(-time.Hour)),
		{
			ID:         "c",
			Type:       models.EntryTypeMeeting,
			OccurredAt: now,
			Payload:    models.MeetingPayload{Summary: "retro", Actions: []string{"sync team"}},
		},
	}
	for _, q := range []string{"sync", "team", "sync team", "eam", "retro"} {
		for _, r := range Search(entries, q, now) {
			require.NotEmpty(t, r.MatchedFields, "query %q entry %s", q, r.Entry.ID)
		}
	}
}

func TestSearch_NumericPayloadValues(t *testing.T) {
	price := 129.5
	e := models.Entry{
		ID:         "p",
		Type:       models.EntryTypeWishlist,
		OccurredAt: now,
		Payload:    models.WishlistPayload{Item: "lamp", PriceEstimate: &price},
	}
	got := Search([]models.Entry{e}, "129.5", now)
	require.Len(t, got, 1)
	require.Equal(t, []string{FieldPayload}, got[0].MatchedFields)
}

func TestRank_UsesIndexedDocument(t *testing.T) {
	e := thought("a", "", "stale body", now)
	index := map[string]Document{"a": {EntryID: "a", Text: "fresh words", Tokens: []string{"fresh", "words"}}}
	require.Len(t, Rank([]models.Entry{e}, index, "fresh", now), 1)
	require.Empty(t, Rank([]models.Entry{e}, index, "stale", now))
}

func TestRecencyBoost(t *testing.T) {
	require.InDelta(t, 1/1.584962500721156, RecencyBoost(now, now), 1e-9)
	require.InDelta(t, RecencyBoost(now, now), RecencyBoost(now.Add(-30*time.Minute), now), 1e-9)
	require.Greater(t, RecencyBoost(now.Add(-2*time.Hour), now), RecencyBoost(now.AddDate(0, 0, -30), now))
	require.Less(t, RecencyBoost(now.Add(time.Hour), now), MinScore)
}

func TestBuildDocument(t *testing.T) {
	e := models.Entry{
		ID:      "d",
		Type:    models.EntryTypeMeeting,
		Title:   "Weekly",
		Tags:    []string{"Team"},
		Payload: models.MeetingPayload{Summary: "Roadmap", Attendees: []string{"Ann", "Bo"}},
	}
	doc := BuildDocument(e)
	require.Equal(t, "d", doc.EntryID)
	require.Equal(t, []string{"weekly", "team", "ann", "bo", "roadmap"}, doc.Tokens)
	require.Equal(t, []string{"weekly", "team", "ann", "bo", "roadmap"}, doc.Fields())
}
