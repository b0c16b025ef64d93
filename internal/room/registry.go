package room

import (
	"sync"

	"roomlog.app/chatd/internal/store"
)

// Registry maps room identifiers to their actors, creating each actor
// lazily and idempotently on first resolution. The same identifier always
// resolves to the same actor; distinct identifiers never share one.
type Registry struct {
	store store.TranscriptStore

	mu     sync.Mutex
	actors map[string]*Actor
}

// NewRegistry creates a Registry backed by the given transcript store.
func NewRegistry(ts store.TranscriptStore) *Registry {
	return &Registry{
		store:  ts,
		actors: make(map[string]*Actor),
	}
}

// Resolve returns the actor owning roomID, creating it on first use.
// Safe for concurrent callers.
func (r *Registry) Resolve(roomID string) *Actor {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, ok := r.actors[roomID]
	if !ok {
		actor = NewActor(roomID, r.store)
		r.actors[roomID] = actor
	}
	return actor
}

// Len returns the number of resolved actors. Used for observability.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}
