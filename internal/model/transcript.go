package model

import "time"

// Role identifies the author side of a transcript entry. Only user and
// assistant turns are ever persisted; the system persona is prepended at
// prompt-build time and never stored.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the persistable roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// TranscriptEntry is one turn in a room's conversation. Timestamps are
// assigned by the room actor at append time and are non-decreasing within
// a room; ties are broken by append order.
type TranscriptEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn summarizes one completed chat turn (one user entry plus one
// assistant entry appended to a room). Published to the turn event stream.
type Turn struct {
	ID      int64  `json:"id"`
	RoomID  string `json:"room_id"`
	Reply   string `json:"reply"`
	Entries int    `json:"entries"`
}
