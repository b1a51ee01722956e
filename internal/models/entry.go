// Package models defines the entry, sync queue and history types shared by
// the braindock client and server.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/braindock/internal/common"
)

// EntryType classifies an entry kind. The set is closed.
type EntryType string

const (
	EntryTypeJournal  EntryType = "journal"
	EntryTypeTodo     EntryType = "todo"
	EntryTypeLearning EntryType = "learning"
	EntryTypeThought  EntryType = "thought"
	EntryTypeMeeting  EntryType = "meeting"
	EntryTypeWishlist EntryType = "wishlist"
)

// EntryTypes lists every declared type in display order.
var EntryTypes = []EntryType{
	EntryTypeJournal, EntryTypeTodo, EntryTypeLearning,
	EntryTypeThought, EntryTypeMeeting, EntryTypeWishlist,
}

// ParseEntryType validates s against the closed set of entry types.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range EntryTypes {
		if t == known {
			return t, nil
		}
	}
	return "", common.Invalid("declared_type", "unknown entry type %q", s)
}

// Sensitivity governs PII handling by downstream readers; it is stored, not
// enforced, here.
type Sensitivity string

const (
	SensitivityPublic    Sensitivity = "public"
	SensitivityInternal  Sensitivity = "internal"
	SensitivitySensitive Sensitivity = "sensitive"
)

func ParseSensitivity(s string) (Sensitivity, error) {
	switch v := Sensitivity(strings.ToLower(strings.TrimSpace(s))); v {
	case SensitivityPublic, SensitivityInternal, SensitivitySensitive:
		return v, nil
	}
	return "", common.Invalid("sensitivity", "unknown sensitivity %q", s)
}

const (
	MaxTitleLength = 200
	MaxBodyLength  = 20000
	MaxTags        = 32
	MaxTagLength   = 64
)

// Entry is one user note as stored locally and remotely.
type Entry struct {
	ID          string
	Type        EntryType
	Title       string
	Body        string
	Tags        []string
	OccurredAt  time.Time
	Sensitivity Sensitivity
	Payload     Payload
	CreatedAt   time.Time
	// UpdatedAt is the only last-writer-wins comparison key.
	UpdatedAt  time.Time
	SyncStatus SyncStatus
	RemoteID   string
}

// EntryInput is what a caller supplies to create an entry. ID is optional.
type EntryInput struct {
	ID          string
	Type        EntryType
	Title       string
	Body        string
	Tags        []string
	OccurredAt  *time.Time
	Sensitivity Sensitivity
	Payload     Payload
}

type entryJSON struct {
	ID          string          `json:"id"`
	Type        EntryType       `json:"declared_type"`
	Title       string          `json:"title,omitempty"`
	Body        string          `json:"body,omitempty"`
	Tags        []string        `json:"tags"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Sensitivity Sensitivity     `json:"sensitivity"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	SyncStatus  SyncStatus      `json:"sync_status,omitempty"`
	RemoteID    string          `json:"remote_id,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	payload, err := MarshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(entryJSON{
		ID:          e.ID,
		Type:        e.Type,
		Title:       e.Title,
		Body:        e.Body,
		Tags:        tags,
		OccurredAt:  e.OccurredAt,
		Sensitivity: e.Sensitivity,
		Payload:     payload,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		SyncStatus:  e.SyncStatus,
		RemoteID:    e.RemoteID,
	})
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	payload, err := DecodePayload(raw.Type, raw.Payload)
	if err != nil {
		return err
	}
	*e = Entry{
		ID:          raw.ID,
		Type:        raw.Type,
		Title:       raw.Title,
		Body:        raw.Body,
		Tags:        raw.Tags,
		OccurredAt:  raw.OccurredAt,
		Sensitivity: raw.Sensitivity,
		Payload:     payload,
		CreatedAt:   raw.CreatedAt,
		UpdatedAt:   raw.UpdatedAt,
		SyncStatus:  raw.SyncStatus,
		RemoteID:    raw.RemoteID,
	}
	return nil
}

// Snapshot serialises the entry for a history record.
func (e Entry) Snapshot() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("snapshot entry %s: %w", e.ID, err)
	}
	return string(b), nil
}

// Validate checks the entry-level fields and the payload shape. It does not
// look at sync bookkeeping.
func (e Entry) Validate() error {
	if e.ID == "" {
		return common.Invalid("id", "must not be empty")
	}
	if _, err := ParseEntryType(string(e.Type)); err != nil {
		return err
	}
	if _, err := ParseSensitivity(string(e.Sensitivity)); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(e.Title); n > MaxTitleLength {
		return common.Invalid("title", "too long (%d > %d)", n, MaxTitleLength)
	}
	if n := utf8.RuneCountInString(e.Body); n > MaxBodyLength {
		return common.Invalid("body", "too long (%d > %d)", n, MaxBodyLength)
	}
	if len(e.Tags) > MaxTags {
		return common.Invalid("tags", "too many (%d > %d)", len(e.Tags), MaxTags)
	}
	for _, tag := range e.Tags {
		if tag == "" {
			return common.Invalid("tags", "empty tag")
		}
		if n := utf8.RuneCountInString(tag); n > MaxTagLength {
			return common.Invalid("tags", "tag %q too long (%d > %d)", tag, n, MaxTagLength)
		}
	}
	if e.OccurredAt.IsZero() {
		return common.Invalid("occurred_at", "must be set")
	}
	if e.Payload == nil {
		return common.Invalid("payload", "must be set")
	}
	if e.Payload.EntryType() != e.Type {
		return common.Invalid("payload", "shape %s does not match declared type %s", e.Payload.EntryType(), e.Type)
	}
	return e.Payload.Validate()
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping the first occurrence's position.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// HasTags reports whether every wanted tag is present on the entry.
func (e Entry) HasTags(wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, t := range e.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
