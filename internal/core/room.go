package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/domain"
)

// Options tune room timing. Zero values fall back to production defaults;
// tests shrink Tick to run the lifecycle fast.
type Options struct {
	Countdown        int           // seconds before the first race
	RestartCountdown int           // seconds between races
	Tick             time.Duration // timer granularity, one lifecycle second
	InboxSize        int
}

func (o Options) withDefaults() Options {
	if o.Countdown <= 0 {
		o.Countdown = 15
	}
	if o.RestartCountdown <= 0 {
		o.RestartCountdown = 30
	}
	if o.Tick <= 0 {
		o.Tick = time.Second
	}
	if o.InboxSize <= 0 {
		o.InboxSize = 64
	}
	return o
}

// Room owns one race lifecycle: waiting, countdown, racing, results, reset.
// All state mutations happen on a single dispatch goroutine; external
// callers enqueue events via Dispatch. The room talks to itself through
// its notifier only, so attachments observe the same event sequence a
// networked player does.
type Room struct {
	opts     Options
	tracks   TrackSource
	notifier *Notifier

	mu    sync.RWMutex
	state roomState

	// phase timer bookkeeping, guarded by mu. Ticks are stamped with the
	// epoch of the phase that scheduled them; a stale stamp is discarded.
	epoch     uint64
	phaseStop context.CancelFunc

	inbox   chan Event
	done    chan struct{}
	stop    sync.Once
	started bool
}

// NewRoom builds a room around a fresh random track. The room is inert
// until Start: attach consumers first, then Start it.
func NewRoom(name domain.RoomName, tracks TrackSource, group Group, opts Options) *Room {
	opts = opts.withDefaults()
	track := tracks.Random()

	r := &Room{
		opts:   opts,
		tracks: tracks,
		state: roomState{
			name:         name,
			track:        track,
			countdown:    opts.Countdown,
			time:         track.Budget(),
			total:        track.Budget(),
			progresses:   make(map[domain.PlayerID]int),
			disconnected: make(map[domain.PlayerID]struct{}),
			finished:     make(map[domain.PlayerID]struct{}),
		},
		inbox: make(chan Event, opts.InboxSize),
		done:  make(chan struct{}),
	}

	r.notifier = NewNotifier(group).
		On(RoomCreated, r.onCreated).
		On(RoomCountdown, r.onCountdown).
		On(RoomStart, r.onStart).
		On(RoomTime, r.onTime).
		On(RoomEnd, r.onEnd).
		On(PlayerJoined, r.onPlayerJoined).
		On(PlayerLeft, r.onPlayerLeft).
		On(PlayerProgress, r.onPlayerProgress)

	return r
}

// Attach subscribes an external consumer to broadcast events.
// Must be called before Start.
func (r *Room) Attach(att Attachment) {
	if r.started {
		log.Warn().Str("module", "core.room").Str("room", string(r.state.name)).Msg("attach after start ignored")
		return
	}
	r.notifier.AddAttachment(att)
}

// Start launches the dispatch goroutine and kicks off the countdown.
func (r *Room) Start() {
	if r.started {
		return
	}
	r.started = true
	go r.run()
	r.Dispatch(Event{Kind: RoomCreated})
}

// Dispatch enqueues an event for the room goroutine. Dropped once the
// room has stopped.
func (r *Room) Dispatch(ev Event) {
	select {
	case <-r.done:
	case r.inbox <- ev:
	}
}

// Stop cancels all timers and terminates the dispatch goroutine.
// Idempotent; safe from any goroutine.
func (r *Room) Stop() {
	r.stop.Do(func() {
		r.mu.Lock()
		r.cancelTimersLocked()
		r.mu.Unlock()
		close(r.done)
		log.Info().Str("module", "core.room").Str("room", string(r.state.name)).Msg("room stopped")
	})
}

func (r *Room) Name() domain.RoomName {
	return r.state.name
}

func (r *Room) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.active
}

// HasPlayer reports whether the player has recorded progress in this room.
func (r *Room) HasPlayer(id domain.PlayerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.state.progresses[id]
	return ok
}

// Snapshot returns a consistent read-only copy of the room state.
func (r *Room) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.snapshot()
}

// Stopped reports whether the room goroutine has been shut down.
func (r *Room) Stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case ev := <-r.inbox:
			r.handle(ev)
		}
	}
}

// handle resolves timer ticks against the current phase, then dispatches
// through the notifier so every transition flows the same path.
func (r *Room) handle(ev Event) {
	if ev.epoch != 0 {
		r.mu.RLock()
		stale := ev.epoch != r.epoch
		if !stale {
			switch ev.Kind {
			case RoomCountdown:
				ev.Seconds = r.state.countdown
			case RoomTime:
				ev.Seconds = r.state.time
			}
		}
		r.mu.RUnlock()
		if stale {
			log.Debug().
				Str("module", "core.room").
				Str("room", string(r.state.name)).
				Str("event", ev.Kind.String()).
				Msg("stale tick discarded")
			return
		}
	}
	r.notifier.EmitLocal(ev)
}

// cancelTimersLocked stops the phase ticker and invalidates any of its
// ticks still queued in the inbox. Caller holds mu.
func (r *Room) cancelTimersLocked() {
	if r.phaseStop != nil {
		r.phaseStop()
		r.phaseStop = nil
	}
	r.epoch++
}

// newPhase cancels the previous phase and opens a fresh one.
func (r *Room) newPhase() (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelTimersLocked()
	ctx, cancel := context.WithCancel(context.Background())
	r.phaseStop = cancel
	return ctx, r.epoch
}

// tickLoop feeds one stamped tick per interval into the inbox until its
// phase is cancelled.
func (r *Room) tickLoop(ctx context.Context, epoch uint64, kind EventKind) {
	t := time.NewTicker(r.opts.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case r.inbox <- Event{Kind: kind, epoch: epoch}:
			case <-ctx.Done():
				return
			case <-r.done:
				return
			}
		}
	}
}

func (r *Room) startCountdown() {
	ctx, epoch := r.newPhase()
	go r.tickLoop(ctx, epoch, RoomCountdown)
}

func (r *Room) onCreated(Event) {
	log.Info().Str("module", "core.room").Str("room", string(r.state.name)).Msg("room created")
	r.startCountdown()
}

func (r *Room) onCountdown(ev Event) {
	if ev.Seconds <= 0 {
		r.notifier.EmitLocal(Event{Kind: RoomStart})
		return
	}
	r.mu.Lock()
	r.state.countdown--
	left := r.state.countdown
	r.mu.Unlock()

	log.Debug().Str("module", "core.room").Str("room", string(r.state.name)).Int("countdown", left).Msg("countdown")
	r.notifier.EmitExternal(Event{Kind: RoomCountdown, Seconds: left})
}

func (r *Room) onStart(Event) {
	log.Info().Str("module", "core.room").Str("room", string(r.state.name)).Msg("race starting")

	r.mu.Lock()
	for id := range r.state.progresses {
		r.state.progresses[id] = 0
	}
	r.state.finished = make(map[domain.PlayerID]struct{})
	r.state.active = true
	snap := r.state.snapshot()
	r.mu.Unlock()

	ctx, epoch := r.newPhase()
	go r.tickLoop(ctx, epoch, RoomTime)

	r.notifier.EmitExternal(Event{Kind: RoomStart, State: snap})
}

func (r *Room) onTime(ev Event) {
	if ev.Seconds <= 0 {
		r.notifier.EmitLocal(Event{Kind: RoomEnd})
		return
	}
	r.mu.Lock()
	r.state.time--
	left := r.state.time
	r.mu.Unlock()

	r.notifier.EmitExternal(Event{Kind: RoomTime, Seconds: left})
}

func (r *Room) onEnd(Event) {
	log.Info().Str("module", "core.room").Str("room", string(r.state.name)).Msg("race ended")

	track := r.tracks.Random()

	r.mu.Lock()
	r.cancelTimersLocked() // the race ticker must not outlive the race
	r.state.track = track
	r.state.total = track.Budget()
	r.state.time = r.state.total
	r.state.active = false
	r.state.countdown = r.opts.RestartCountdown
	r.state.finished = make(map[domain.PlayerID]struct{})
	countdown, total := r.state.countdown, r.state.total
	r.mu.Unlock()

	r.notifier.EmitExternal(Event{Kind: RoomEnd, Seconds: countdown, Budget: total})
	r.startCountdown()
}

func (r *Room) onPlayerJoined(ev Event) {
	r.mu.Lock()
	delete(r.state.disconnected, ev.Player)
	if _, known := r.state.progresses[ev.Player]; !known {
		r.state.progresses[ev.Player] = 0
	}
	progress := r.state.progresses[ev.Player]
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.state.name)).Str("player", string(ev.Player)).Msg("player joined")
	r.notifier.EmitExternal(Event{Kind: PlayerJoined, Player: ev.Player, Progress: progress})
}

func (r *Room) onPlayerLeft(ev Event) {
	r.mu.Lock()
	r.state.disconnected[ev.Player] = struct{}{}
	empty := r.state.allDisconnected()
	raceOver := !empty && r.state.active && r.state.nobodyTyping()
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.state.name)).Str("player", string(ev.Player)).Msg("player left")

	if empty {
		r.Stop()
		if ev.OnEmpty != nil {
			ev.OnEmpty()
		}
		return
	}

	r.notifier.EmitExternal(Event{Kind: PlayerLeft, Player: ev.Player})
	if raceOver {
		r.notifier.EmitLocal(Event{Kind: RoomEnd})
	}
}

func (r *Room) onPlayerProgress(ev Event) {
	r.mu.Lock()
	prev, known := r.state.progresses[ev.Player]
	if !known {
		r.mu.Unlock()
		return
	}
	progress := ev.Progress
	if progress < prev {
		progress = prev // progress never regresses within a race
	}
	if max := len(r.state.track.Text); progress > max {
		progress = max
	}
	r.state.progresses[ev.Player] = progress
	finishedNow := r.state.active && progress == len(r.state.track.Text)
	if finishedNow {
		r.state.finished[ev.Player] = struct{}{}
	}
	raceOver := finishedNow && r.state.nobodyTyping()
	r.mu.Unlock()

	r.notifier.EmitExternal(Event{Kind: PlayerProgress, Player: ev.Player, Progress: progress})
	if raceOver {
		r.notifier.EmitLocal(Event{Kind: RoomEnd})
	}
}
