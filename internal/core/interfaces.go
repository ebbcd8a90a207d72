package core

import "github.com/dkeye/Typerace/internal/domain"

// Group is the set of connections currently joined to one room.
// Owned by the transport adapter; the room only fans out into it.
type Group interface {
	Send(Event)
}

// Attachment is a secondary consumer of a room's broadcast events,
// e.g. the commentator. Attachments never mutate room state.
type Attachment interface {
	HandleEvent(Event)
}

// TrackSource supplies race texts. Implementations must always return a
// non-empty track (fallback on storage failure, never an error).
type TrackSource interface {
	Random() domain.Track
}
