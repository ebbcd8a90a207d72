package core

import "github.com/dkeye/Typerace/internal/domain"

// EventKind is the closed set of room events. Wire names follow String.
type EventKind int

const (
	RoomCreated EventKind = iota
	RoomCountdown
	RoomStart
	RoomTime
	RoomEnd
	PlayerJoined
	PlayerLeft
	PlayerProgress
	// CommentatorMessage is outbound-only; no room handler reacts to it.
	CommentatorMessage
)

var eventNames = map[EventKind]string{
	RoomCreated:        "roomCreated",
	RoomCountdown:      "roomCountdown",
	RoomStart:          "roomStart",
	RoomTime:           "roomTime",
	RoomEnd:            "roomEnd",
	PlayerJoined:       "playerJoined",
	PlayerLeft:         "playerLeft",
	PlayerProgress:     "playerProgress",
	CommentatorMessage: "commentatorMessage",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a tagged message with a fixed payload per kind. Unused fields
// stay zero; handlers read only what their kind carries.
//
//	RoomCountdown, RoomTime:  Seconds
//	RoomStart:                State
//	RoomEnd:                  Seconds (new countdown), Budget (new time budget)
//	PlayerJoined:             Player, Progress
//	PlayerLeft:               Player, OnEmpty
//	PlayerProgress:           Player, Progress
//	CommentatorMessage:       Message
type Event struct {
	Kind     EventKind
	Player   domain.PlayerID
	Progress int
	Seconds  int
	Budget   int
	State    *Snapshot
	Message  string
	OnEmpty  func()

	// epoch stamps timer ticks with the phase that scheduled them so a
	// tick outliving its phase is discarded instead of corrupting the next.
	epoch uint64
}
