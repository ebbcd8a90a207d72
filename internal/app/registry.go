// Package app owns room allocation: matchmaking a connecting player into
// an eligible room, or creating and wiring a fresh one.
package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

// GroupFactory yields the broadcast group for a new room; implemented by
// the transport adapter.
type GroupFactory func(domain.RoomName) core.Group

// AttachmentFactory builds a secondary consumer (e.g. the commentator)
// for a freshly created room and its broadcast group, before the room
// starts.
type AttachmentFactory func(room *core.Room, group core.Group) core.Attachment

type RoomInfo struct {
	Name    domain.RoomName `json:"name"`
	Players int             `json:"players"`
	Active  bool            `json:"active"`
}

// Registry holds every live room, keyed by name, in insertion order.
// One mutex serializes matchmaking so a burst of near-simultaneous
// connections for the same player lands in one room.
type Registry struct {
	tracks      core.TrackSource
	groups      GroupFactory
	opts        core.Options
	attachments []AttachmentFactory

	mu    sync.Mutex
	rooms map[domain.RoomName]*core.Room
	order []domain.RoomName
}

func NewRegistry(tracks core.TrackSource, groups GroupFactory, opts core.Options, attachments ...AttachmentFactory) *Registry {
	return &Registry{
		tracks:      tracks,
		groups:      groups,
		opts:        opts,
		attachments: attachments,
		rooms:       make(map[domain.RoomName]*core.Room),
	}
}

// FindOrCreate returns the first room, in insertion order, where the
// player already has progress (reconnect) or the race has not started.
// Earlier rooms fill up before new ones open. Idempotent per player
// while their race has not started.
func (r *Registry) FindOrCreate(player domain.PlayerID) *core.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		room := r.rooms[name]
		if room.Stopped() {
			continue
		}
		if room.HasPlayer(player) || !room.Active() {
			return room
		}
	}

	name := domain.RoomName(uuid.NewString())
	group := r.groups(name)
	room := core.NewRoom(name, r.tracks, group, r.opts)
	for _, build := range r.attachments {
		room.Attach(build(room, group))
	}
	r.rooms[name] = room
	r.order = append(r.order, name)
	room.Start()

	log.Info().Str("module", "app.registry").Str("room", string(name)).Str("player", string(player)).Msg("created room")
	return room
}

// Get looks a room up by name.
func (r *Registry) Get(name domain.RoomName) (*core.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[name]
	return room, ok
}

// Remove stops and drops a room. Invoked by the room's own on-empty
// callback once every known player has disconnected.
func (r *Registry) Remove(name domain.RoomName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[name]
	if !ok {
		return
	}
	room.Stop()
	delete(r.rooms, name)
	r.order = lo.Without(r.order, name)
	log.Info().Str("module", "app.registry").Str("room", string(name)).Msg("removed room")
}

// List snapshots every live room for the inspection endpoint.
func (r *Registry) List() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.order, func(name domain.RoomName, _ int) RoomInfo {
		snap := r.rooms[name].Snapshot()
		return RoomInfo{Name: name, Players: len(snap.Progresses), Active: snap.Active}
	})
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
