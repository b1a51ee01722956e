package search

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/braindock/internal/models"
)

// FieldSeparator joins the fields of Document.Text. Queries never match
// across it.
const FieldSeparator = "\x1f"

// Document is the derived, stored search form of one entry.
type Document struct {
	EntryID string
	// Text is the normalised searchable fields joined with FieldSeparator.
	Text   string
	Tokens []string
}

// Fields splits Text back into its normalised fields.
func (d Document) Fields() []string {
	return strings.Split(d.Text, FieldSeparator)
}

// BuildDocument derives the search document of e from its title, body,
// each tag and every string, number or array value of its payload. Every
// one of them is a separate field.
func BuildDocument(e models.Entry) Document {
	parts := make([]string, 0, 2+len(e.Tags))
	parts = append(parts, e.Title, e.Body)
	parts = append(parts, e.Tags...)
	parts = append(parts, PayloadValues(e.Payload)...)

	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(Normalize(p)); p != "" {
			fields = append(fields, p)
		}
	}
	text := strings.Join(fields, FieldSeparator)
	return Document{
		EntryID: e.ID,
		Text:    text,
		Tokens:  Tokenize(text),
	}
}

// PayloadValues flattens the scalar and list values of p in key order.
// Objects nested in lists are walked too; booleans and nulls are skipped.
func PayloadValues(p models.Payload) []string {
	if p == nil {
		return nil
	}
	raw, err := models.MarshalPayload(p)
	if err != nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	var out []string
	collect(v, &out)
	return out
}

func collect(v any, out *[]string) {
	switch x := v.(type) {
	case string:
		if x != "" {
			*out = append(*out, x)
		}
	case float64:
		*out = append(*out, strconv.FormatFloat(x, 'f', -1, 64))
	case []any:
		for _, item := range x {
			collect(item, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			collect(x[k], out)
		}
	}
}
