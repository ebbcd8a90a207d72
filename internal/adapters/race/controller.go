package race

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/app"
	"github.com/dkeye/Typerace/internal/auth"
	"github.com/dkeye/Typerace/internal/config"
	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

const sendBuffer = 32

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller binds websocket connections to rooms. Registry is assigned
// during wiring, after the registry is built around GroupFor.
type Controller struct {
	Cfg      *config.Config
	Auth     *auth.Service
	Registry *app.Registry

	mu     sync.Mutex
	groups map[domain.RoomName]*group
}

func NewController(cfg *config.Config, authSvc *auth.Service) *Controller {
	return &Controller{
		Cfg:    cfg,
		Auth:   authSvc,
		groups: make(map[domain.RoomName]*group),
	}
}

// GroupFor is the app.GroupFactory: one broadcast group per room.
func (ctl *Controller) GroupFor(name domain.RoomName) core.Group {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	g, ok := ctl.groups[name]
	if !ok {
		g = newGroup(name)
		ctl.groups[name] = g
	}
	return g
}

func (ctl *Controller) groupOf(name domain.RoomName) *group {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.groups[name]
}

func (ctl *Controller) dropGroup(name domain.RoomName) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	delete(ctl.groups, name)
}

// HandleRace upgrades the connection, authenticates the token from the
// query, matches the player into a room and wires both pumps. Auth
// failure is terminal: an explicit authFail frame, then close.
func (ctl *Controller) HandleRace(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "race").Msg("ws upgrade")
		return
	}

	player, err := ctl.Auth.Verify(c.Query("token"))
	if err != nil {
		log.Warn().Err(err).Str("module", "race").Msg("rejected connection")
		_ = ws.WriteJSON(gin.H{"type": "authFail"})
		_ = ws.Close()
		return
	}
	log.Info().Str("module", "race").Str("player", string(player)).Msg("new WS connection")

	room := ctl.Registry.FindOrCreate(player)
	g := ctl.groupOf(room.Name())
	if g == nil {
		// Registry built the room through GroupFor, so this can only miss
		// if the room emptied out in between. Bail and let the client retry.
		log.Error().Str("module", "race").Str("room", string(room.Name())).Msg("no group for room")
		_ = ws.Close()
		return
	}

	conn := newConn(ws, sendBuffer)
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	ctx, cancel := context.WithCancel(ctx)
	g.Join(conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn, g, room, player)

	ctl.sendAuthSuccess(conn, player, room.Snapshot())
	room.Dispatch(core.Event{Kind: core.PlayerJoined, Player: player})
}

func (ctl *Controller) sendAuthSuccess(conn *wsConn, player domain.PlayerID, snap *core.Snapshot) {
	data, err := encodeJSON(authSuccessMessage{Type: "authSuccess", Player: player, State: snap})
	if err != nil {
		log.Error().Err(err).Str("module", "race").Msg("encode authSuccess")
		return
	}
	_ = conn.TrySend(data)
}
