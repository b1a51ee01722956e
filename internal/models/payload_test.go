package models

import (
	"testing"

	"github.com/dmitrijs2005/braindock/internal/common"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_EachType(t *testing.T) {
	tests := []struct {
		typ  EntryType
		raw  string
		want Payload
	}{
		{EntryTypeJournal, `{"entry":"slept well","energy":4}`, JournalPayload{Entry: "slept well", Energy: 4}},
		{EntryTypeTodo, `{"details":"d","status":"done","priority":1}`, TodoPayload{Details: "d", Status: TodoStatusDone, Priority: 1}},
		{EntryTypeLearning, `{"takeaway":"t","source_url":"https://go.dev"}`, LearningPayload{Takeaway: "t", SourceURL: "https://go.dev"}},
		{EntryTypeThought, `{"note":"n"}`, ThoughtPayload{Note: "n"}},
		{EntryTypeMeeting, `{"summary":"s","actions":["a1"]}`, MeetingPayload{Summary: "s", Actions: []string{"a1"}}},
		{EntryTypeWishlist, `{"item":"lamp","priority":0}`, WishlistPayload{Item: "lamp"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got, err := DecodePayload(tt.typ, []byte(tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.typ, got.EntryType())
			require.NoError(t, got.Validate())
		})
	}
}

func TestDecodePayload_Rejects(t *testing.T) {
	tests := []struct {
		name string
		typ  EntryType
		raw  string
	}{
		{"unknown type", "recipe", `{}`},
		{"unknown field", EntryTypeThought, `{"note":"n","mood":"x"}`},
		{"null", EntryTypeThought, `null`},
		{"empty", EntryTypeThought, ``},
		{"wrong shape", EntryTypeTodo, `{"priority":"high"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.typ, []byte(tt.raw))
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestPayload_Validate(t *testing.T) {
	neg := -1.5
	tests := []struct {
		name  string
		p     Payload
		field string
	}{
		{"journal empty", JournalPayload{Entry: "  "}, "payload.entry"},
		{"journal energy", JournalPayload{Entry: "e", Energy: 6}, "payload.energy"},
		{"todo status", TodoPayload{Details: "d", Status: "later", Priority: 3}, "payload.status"},
		{"todo priority zero", TodoPayload{Details: "d", Status: TodoStatusTodo}, "payload.priority"},
		{"learning url", LearningPayload{Takeaway: "t", SourceURL: "ftp://x"}, "payload.source_url"},
		{"thought empty", ThoughtPayload{}, "payload.note"},
		{"meeting empty action", MeetingPayload{Summary: "s", Actions: []string{""}}, "payload.actions"},
		{"wishlist price", WishlistPayload{Item: "i", PriceEstimate: &neg}, "payload.price_estimate"},
		{"wishlist priority", WishlistPayload{Item: "i", Priority: 6}, "payload.priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestMarshalPayload_Nil(t *testing.T) {
	b, err := MarshalPayload(nil)
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}
