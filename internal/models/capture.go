package models

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/braindock/internal/common"
)

// CaptureTitleLength bounds the title derived from free text.
const CaptureTitleLength = 80

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s)>"]+`)
	taskHintPattern = regexp.MustCompile(`(?i)^\s*(?:\[[ x]\]|\(\s\)|(?:todo|task|next)\b|やること|宿題)|\bTODO\b|締切|期限|やる|対応する`)

	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
		regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|token|password|passwd)\b\s*[:=]\s*['"]?[A-Za-z0-9_\-]{12,}`),
	}
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	phonePattern  = regexp.MustCompile(`\+?\d[\d\-\s()]{8,}\d`)
	postalPattern = regexp.MustCompile(`\b\d{3}-\d{4}\b`)
)

// SensitiveScoreThreshold is the PII score from which captured text is
// suggested as sensitive.
const SensitiveScoreThreshold = 0.5

// DetectType guesses an entry type for free text: links become learning
// entries, task-like lines become todos, everything else is a thought.
func DetectType(text string) EntryType {
	switch {
	case urlPattern.MatchString(text):
		return EntryTypeLearning
	case taskHintPattern.MatchString(text):
		return EntryTypeTodo
	}
	return EntryTypeThought
}

// PIIScore estimates in 0..1 how likely text carries personal or secret data.
func PIIScore(text string) float64 {
	score := 0.0
	for _, p := range secretPatterns {
		if p.MatchString(text) {
			score = max(score, 0.95)
		}
	}
	if emailPattern.MatchString(text) {
		score = max(score, 0.55)
	}
	if phonePattern.MatchString(text) {
		score = max(score, 0.65)
	}
	if postalPattern.MatchString(text) {
		score = max(score, 0.70)
	}
	return min(score, 1.0)
}

// SuggestSensitivity maps a PII score onto the sensitivity scale.
func SuggestSensitivity(text string) Sensitivity {
	if PIIScore(text) >= SensitiveScoreThreshold {
		return SensitivitySensitive
	}
	return SensitivityInternal
}

// DefaultPayload derives the minimal payload for t from free text.
func DefaultPayload(t EntryType, text string) (Payload, error) {
	switch t {
	case EntryTypeJournal:
		return JournalPayload{Entry: text}, nil
	case EntryTypeTodo:
		return TodoPayload{Details: text, Status: TodoStatusTodo, Priority: 3}, nil
	case EntryTypeLearning:
		p := LearningPayload{Takeaway: text}
		if u := urlPattern.FindString(text); u != "" {
			p.SourceURL = u
		}
		return p, nil
	case EntryTypeThought:
		return ThoughtPayload{Note: text}, nil
	case EntryTypeMeeting:
		return MeetingPayload{Summary: text}, nil
	case EntryTypeWishlist:
		return WishlistPayload{Item: text, Priority: 3}, nil
	}
	return nil, common.Invalid("declared_type", "unknown entry type %q", t)
}

// CaptureTitle is the first non-empty line of text cut to
// CaptureTitleLength runes.
func CaptureTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > CaptureTitleLength {
			line = string([]rune(line)[:CaptureTitleLength])
		}
		return line
	}
	return ""
}
