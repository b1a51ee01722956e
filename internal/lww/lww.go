// Package lww holds the last-writer-wins rule. It is the only place where
// update timestamps from two sources are compared.
package lww

import "github.com/dmitrijs2005/braindock/internal/models"

// Outcome is the result of comparing an incoming version with a stored one.
type Outcome int

const (
	// KeepLocal means the stored version is newer; the incoming one loses.
	KeepLocal Outcome = iota
	// TakeIncoming means the incoming version is strictly newer.
	TakeIncoming
	// Same means both carry the same updated_at. Incoming wins the tie, and
	// since the content is the same write replayed, applying it is a no-op.
	Same
)

func (o Outcome) String() string {
	switch o {
	case KeepLocal:
		return "keep_local"
	case TakeIncoming:
		return "take_incoming"
	case Same:
		return "same"
	}
	return "unknown"
}

// IncomingWins reports whether Resolve would return the incoming version.
func (o Outcome) IncomingWins() bool { return o != KeepLocal }

// Decide compares updated_at of the two versions.
func Decide(local, incoming models.Entry) Outcome {
	switch c := incoming.UpdatedAt.Compare(local.UpdatedAt); {
	case c > 0:
		return TakeIncoming
	case c == 0:
		return Same
	}
	return KeepLocal
}

// Resolve returns incoming if incoming.UpdatedAt >= local.UpdatedAt, else
// local. Ties favour incoming, which keeps replays idempotent.
func Resolve(local, incoming models.Entry) models.Entry {
	if Decide(local, incoming).IncomingWins() {
		return incoming
	}
	return local
}
