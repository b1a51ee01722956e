package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/braindock/internal/common"
)

// Payload is the type-tagged structured part of an entry. Each declared
// entry type has exactly one payload shape.
type Payload interface {
	EntryType() EntryType
	Validate() error
}

// TodoStatus is the workflow state carried by a todo payload.
type TodoStatus string

const (
	TodoStatusTodo  TodoStatus = "todo"
	TodoStatusDoing TodoStatus = "doing"
	TodoStatusDone  TodoStatus = "done"
)

type JournalPayload struct {
	Entry  string `json:"entry"`
	Mood   string `json:"mood,omitempty"`
	Energy int    `json:"energy,omitempty"`
}

func (JournalPayload) EntryType() EntryType { return EntryTypeJournal }

func (p JournalPayload) Validate() error {
	if err := requireText("payload.entry", p.Entry); err != nil {
		return err
	}
	if utf8.RuneCountInString(p.Mood) > 40 {
		return common.Invalid("payload.mood", "too long")
	}
	return checkRange("payload.energy", p.Energy, 0, 5)
}

type TodoPayload struct {
	Details  string     `json:"details"`
	Status   TodoStatus `json:"status"`
	Priority int        `json:"priority"`
	DueAt    *time.Time `json:"due_at,omitempty"`
}

func (TodoPayload) EntryType() EntryType { return EntryTypeTodo }

func (p TodoPayload) Validate() error {
	if err := requireText("payload.details", p.Details); err != nil {
		return err
	}
	switch p.Status {
	case TodoStatusTodo, TodoStatusDoing, TodoStatusDone:
	default:
		return common.Invalid("payload.status", "unknown status %q", p.Status)
	}
	return checkRange("payload.priority", p.Priority, 1, 5)
}

type LearningPayload struct {
	Takeaway  string `json:"takeaway"`
	Topic     string `json:"topic,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

func (LearningPayload) EntryType() EntryType { return EntryTypeLearning }

func (p LearningPayload) Validate() error {
	if err := requireText("payload.takeaway", p.Takeaway); err != nil {
		return err
	}
	if p.SourceURL != "" {
		u, err := url.Parse(p.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return common.Invalid("payload.source_url", "must be an absolute http(s) URL")
		}
	}
	return nil
}

type ThoughtPayload struct {
	Note string `json:"note"`
}

func (ThoughtPayload) EntryType() EntryType { return EntryTypeThought }

func (p ThoughtPayload) Validate() error {
	return requireText("payload.note", p.Note)
}

type MeetingPayload struct {
	Summary   string   `json:"summary"`
	Attendees []string `json:"attendees,omitempty"`
	Decisions []string `json:"decisions,omitempty"`
	Actions   []string `json:"actions,omitempty"`
}

func (MeetingPayload) EntryType() EntryType { return EntryTypeMeeting }

func (p MeetingPayload) Validate() error {
	if err := requireText("payload.summary", p.Summary); err != nil {
		return err
	}
	lists := []struct {
		field string
		items []string
	}{
		{"payload.attendees", p.Attendees},
		{"payload.decisions", p.Decisions},
		{"payload.actions", p.Actions},
	}
	for _, l := range lists {
		for i, item := range l.items {
			if strings.TrimSpace(item) == "" {
				return common.Invalid(l.field, "item %d is empty", i)
			}
		}
	}
	return nil
}

type WishlistPayload struct {
	Item          string   `json:"item"`
	URL           string   `json:"url,omitempty"`
	PriceEstimate *float64 `json:"price_estimate,omitempty"`
	Priority      int      `json:"priority,omitempty"`
}

func (WishlistPayload) EntryType() EntryType { return EntryTypeWishlist }

func (p WishlistPayload) Validate() error {
	if err := requireText("payload.item", p.Item); err != nil {
		return err
	}
	if p.PriceEstimate != nil && *p.PriceEstimate < 0 {
		return common.Invalid("payload.price_estimate", "must not be negative")
	}
	return checkRange("payload.priority", p.Priority, 0, 5)
}

// DecodePayload turns a raw JSON payload into the shape dictated by t.
// Unknown fields are rejected so typos surface as validation errors.
func DecodePayload(t EntryType, raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, common.Invalid("payload", "must be set")
	}
	switch t {
	case EntryTypeJournal:
		return decodeStrict[JournalPayload](raw)
	case EntryTypeTodo:
		return decodeStrict[TodoPayload](raw)
	case EntryTypeLearning:
		return decodeStrict[LearningPayload](raw)
	case EntryTypeThought:
		return decodeStrict[ThoughtPayload](raw)
	case EntryTypeMeeting:
		return decodeStrict[MeetingPayload](raw)
	case EntryTypeWishlist:
		return decodeStrict[WishlistPayload](raw)
	default:
		return nil, common.Invalid("declared_type", "unknown entry type %q", t)
	}
}

// MarshalPayload encodes p; a nil payload encodes as JSON null.
func MarshalPayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage("null"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", p.EntryType(), err)
	}
	return b, nil
}

func decodeStrict[T Payload](raw []byte) (Payload, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, common.Invalid("payload", "%v", err)
	}
	return v, nil
}

func requireText(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return common.Invalid(field, "must not be empty")
	}
	if n := utf8.RuneCountInString(s); n > MaxBodyLength {
		return common.Invalid(field, "too long (%d > %d)", n, MaxBodyLength)
	}
	return nil
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return common.Invalid(field, "must be within %d..%d, got %d", lo, hi, v)
	}
	return nil
}
