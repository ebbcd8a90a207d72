package race

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

const writeTimeout = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "race").Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "race").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "race").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(
	ctx context.Context,
	cancel context.CancelFunc,
	c *wsConn,
	g *group,
	room *core.Room,
	player domain.PlayerID,
) {
	defer func() {
		log.Info().Str("module", "race").Str("player", string(player)).Msg("connection closing")
		cancel()
		c.Close()
		g.Leave(c)
		// The group lives exactly as long as its room: drop it only when
		// the room empties out and leaves the registry.
		room.Dispatch(core.Event{
			Kind:   core.PlayerLeft,
			Player: player,
			OnEmpty: func() {
				ctl.Registry.Remove(room.Name())
				ctl.dropGroup(g.name)
			},
		})
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "race").Str("player", string(player)).Msg("readPump read error")
				return
			}
			ctl.handleInbound(room, player, data)
		}
	}
}

// handleInbound relays one client frame into the room. The identity is
// always the authenticated one; the payload never names a player.
func (ctl *Controller) handleInbound(room *core.Room, player domain.PlayerID, data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "race").Msg("bad json")
		return
	}

	switch env.Type {
	case "playerProgress":
		room.Dispatch(core.Event{Kind: core.PlayerProgress, Player: player, Progress: env.Progress})
	default:
		log.Warn().Str("module", "race").Str("type", env.Type).Msg("unknown message")
	}
}
