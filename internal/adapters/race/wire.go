package race

import (
	"encoding/json"

	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

// Outbound messages mirror the room event set plus the auth handshake.

type stateMessage struct {
	Type  string         `json:"type"`
	State *core.Snapshot `json:"state"`
}

type tickMessage struct {
	Type    string `json:"type"`
	Seconds int    `json:"seconds"`
}

type endMessage struct {
	Type      string `json:"type"`
	Countdown int    `json:"countdown"`
	Time      int    `json:"time"`
}

type playerMessage struct {
	Type     string          `json:"type"`
	Player   domain.PlayerID `json:"player"`
	Progress int             `json:"progress"`
}

type textMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type authSuccessMessage struct {
	Type   string          `json:"type"`
	Player domain.PlayerID `json:"player"`
	State  *core.Snapshot  `json:"state"`
}

// encode turns a room event into its wire frame. Events with no wire
// representation return nil.
func encode(ev core.Event) ([]byte, error) {
	switch ev.Kind {
	case core.RoomCountdown, core.RoomTime:
		return json.Marshal(tickMessage{Type: ev.Kind.String(), Seconds: ev.Seconds})
	case core.RoomStart:
		return json.Marshal(stateMessage{Type: ev.Kind.String(), State: ev.State})
	case core.RoomEnd:
		return json.Marshal(endMessage{Type: ev.Kind.String(), Countdown: ev.Seconds, Time: ev.Budget})
	case core.PlayerJoined, core.PlayerProgress:
		return json.Marshal(playerMessage{Type: ev.Kind.String(), Player: ev.Player, Progress: ev.Progress})
	case core.PlayerLeft:
		return json.Marshal(playerMessage{Type: ev.Kind.String(), Player: ev.Player})
	case core.CommentatorMessage:
		return json.Marshal(textMessage{Type: ev.Kind.String(), Message: ev.Message})
	default:
		return nil, nil
	}
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Inbound messages from the client.

type inboundEnvelope struct {
	Type     string `json:"type"`
	Progress int    `json:"progress"`
}
