package store

import (
	"context"
	"errors"

	"roomlog.app/chatd/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// TranscriptStore defines the contract for transcript persistence. One
// durable record exists per room identifier, holding the ordered entry
// list. Rooms are created implicitly on first append and never deleted
// here; retention is out of scope.
type TranscriptStore interface {
	// Load returns the full ordered transcript for a room. An unseen
	// room yields ErrNotFound; the owning actor treats that as an empty
	// transcript (implicit creation happens on first append).
	Load(ctx context.Context, roomID string) ([]model.TranscriptEntry, error)

	// Append durably adds entries at the end of the room's transcript.
	// The write is atomic: the entries are either fully durable or not
	// present at all.
	Append(ctx context.Context, roomID string, entries ...model.TranscriptEntry) error
}
