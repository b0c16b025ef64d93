package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roomlog.app/chatd/internal/model"
	"roomlog.app/chatd/internal/store"
)

// Actor owns all access to one room's transcript. Every operation runs
// under the actor's mutex, so two concurrent appends to the same room are
// applied in some definite order rather than racing or being lost.
// Operations on different rooms share nothing and run fully concurrently.
type Actor struct {
	roomID string
	store  store.TranscriptStore

	mu     sync.Mutex
	seeded bool
	lastTS time.Time
	now    func() time.Time
}

// NewActor creates an actor for roomID backed by the given store. Callers
// should resolve actors through a Registry rather than construct them
// directly, so that one room never ends up with two actors.
func NewActor(roomID string, ts store.TranscriptStore) *Actor {
	return &Actor{
		roomID: roomID,
		store:  ts,
		now:    time.Now,
	}
}

// RoomID returns the identifier of the room this actor owns.
func (a *Actor) RoomID() string {
	return a.roomID
}

// Append persists an entry as the new last element of the transcript. The
// timestamp is assigned here, inside the critical section, and is clamped
// to never precede the previous entry's timestamp. The append is atomic:
// on error the entry is not present at all.
func (a *Actor) Append(ctx context.Context, role model.Role, content string) (model.TranscriptEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.seed(ctx); err != nil {
		return model.TranscriptEntry{}, err
	}

	ts := a.now().UTC()
	if ts.Before(a.lastTS) {
		ts = a.lastTS
	}

	entry := model.TranscriptEntry{
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}

	if err := a.store.Append(ctx, a.roomID, entry); err != nil {
		return model.TranscriptEntry{}, fmt.Errorf("room %q: %w", a.roomID, err)
	}

	a.lastTS = ts
	return entry, nil
}

// Read returns the full ordered transcript as of the time the read is
// served. Reads take the same mutex as appends so a read never observes a
// mutation in flight.
func (a *Actor) Read(ctx context.Context) ([]model.TranscriptEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("room %q: %w", a.roomID, err)
	}

	if !a.seeded {
		a.seedFrom(entries)
	}
	return entries, nil
}

// load reads the persisted transcript, treating an unseen room as an
// empty one. Called with the mutex held.
func (a *Actor) load(ctx context.Context) ([]model.TranscriptEntry, error) {
	entries, err := a.store.Load(ctx, a.roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

// seed initializes the timestamp floor from the persisted transcript so
// the non-decreasing invariant holds across process restarts. Called with
// the mutex held.
func (a *Actor) seed(ctx context.Context) error {
	if a.seeded {
		return nil
	}
	entries, err := a.load(ctx)
	if err != nil {
		return fmt.Errorf("room %q: seeding timestamps: %w", a.roomID, err)
	}
	a.seedFrom(entries)
	return nil
}

func (a *Actor) seedFrom(entries []model.TranscriptEntry) {
	if n := len(entries); n > 0 {
		a.lastTS = entries[n-1].Timestamp
	}
	a.seeded = true
}
