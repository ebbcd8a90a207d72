package race

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

// group is one room's broadcast set. Frames are encoded once and fanned
// out with TrySend; slow consumers drop frames rather than stall the room.
type group struct {
	name domain.RoomName

	mu    sync.RWMutex
	conns map[*wsConn]struct{}
}

func newGroup(name domain.RoomName) *group {
	return &group{
		name:  name,
		conns: make(map[*wsConn]struct{}),
	}
}

func (g *group) Join(c *wsConn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[c] = struct{}{}
}

func (g *group) Leave(c *wsConn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns, c)
}

// Send implements core.Group.
func (g *group) Send(ev core.Event) {
	data, err := encode(ev)
	if err != nil || data == nil {
		if err != nil {
			log.Error().Err(err).Str("module", "race").Str("event", ev.Kind.String()).Msg("encode broadcast")
		}
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	sent, dropped := 0, 0
	for c := range g.conns {
		if err := c.TrySend(data); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "race").Str("room", string(g.name)).Str("event", ev.Kind.String()).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}
