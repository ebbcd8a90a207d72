// Package commentator is a cosmetic consumer of room events. It derives
// flavor messages from the live room snapshot and publishes them to the
// room's broadcast group. It never mutates room state; any failure here
// is isolated by the notifier and invisible to players.
package commentator

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

const defaultIdle = 15 * time.Second

var places = map[int]string{1: "first", 2: "second", 3: "third"}

var jokes = []string{
	"I am weaker than wolf, but it has no dino",
	"A race typed is a race lived",
	"Careful! Keyboard is electrified",
	"You better keep your speed high!",
}

// Commentator watches one room. Between events it holds only the finish
// times of the current race and a rolling idle timer for filler remarks.
type Commentator struct {
	group core.Group
	room  *core.Room
	idle  time.Duration

	mu         sync.Mutex
	finishedAt map[domain.PlayerID]int // seconds into the race
	idleTimer  *time.Timer
}

// New builds a commentator for the room. idle <= 0 uses the default
// 15 second filler window.
func New(group core.Group, room *core.Room, idle time.Duration) *Commentator {
	if idle <= 0 {
		idle = defaultIdle
	}
	return &Commentator{
		group:      group,
		room:       room,
		idle:       idle,
		finishedAt: make(map[domain.PlayerID]int),
	}
}

// HandleEvent implements core.Attachment.
func (c *Commentator) HandleEvent(ev core.Event) {
	switch ev.Kind {
	case core.RoomCountdown:
		c.onCountdown(ev.Seconds)
	case core.RoomStart:
		c.onStart()
	case core.RoomTime:
		c.onTime(ev.Seconds)
	case core.RoomEnd:
		c.onEnd()
	case core.PlayerJoined:
		c.onPlayerJoined(ev.Player)
	case core.PlayerProgress:
		c.onPlayerProgress(ev.Player, ev.Progress)
	}
}

func (c *Commentator) onCountdown(countdown int) {
	switch countdown {
	case 6:
		c.say("Racers, prepare your keyboards!")
	case 4:
		c.say("Ready...")
	case 2:
		c.say("Steady!..")
	}
}

func (c *Commentator) onStart() {
	c.mu.Lock()
	c.finishedAt = make(map[domain.PlayerID]int)
	c.mu.Unlock()
	c.say("Go!")
}

func (c *Commentator) onTime(timeLeft int) {
	snap := c.room.Snapshot()
	elapsed := snap.Total - timeLeft

	if timeLeft != snap.Total && elapsed%30 == 0 {
		c.sayStandings(snap, elapsed)
	}
	if timeLeft == 2 {
		c.say("The time is running out!...")
	}
}

func (c *Commentator) sayStandings(snap *core.Snapshot, elapsed int) {
	leaders := standings(snap.Progresses)
	if len(leaders) == 0 {
		return
	}
	first := leaders[0]
	if len(leaders) == 1 {
		c.say(fmt.Sprintf("%ds past! Distance left: %d", elapsed, len(snap.Track)-first.progress))
		return
	}
	second := leaders[1]
	c.say(fmt.Sprintf("%ds past! 1st - %s: %d, 2nd - %s: %d, distance: %d",
		elapsed, first.player, first.progress, second.player, second.progress,
		first.progress-second.progress))
}

func (c *Commentator) onPlayerJoined(player domain.PlayerID) {
	snap := c.room.Snapshot()
	if !snap.Active {
		c.say("Greetings, everyone! Call me D-Cat")
		return
	}
	if snap.Progresses[player] == 0 {
		return
	}
	if lo.Contains(snap.Finished, player) {
		c.say(fmt.Sprintf("Hey, %s. Came back to get your medal?", player))
		return
	}
	c.say(fmt.Sprintf("Howdy, %s. Wait what, your score is %d?", player, snap.Progresses[player]))
}

func (c *Commentator) onPlayerProgress(player domain.PlayerID, progress int) {
	snap := c.room.Snapshot()
	multiplayer := len(snap.Progresses) > 1

	if progress <= 1 {
		started := lo.CountBy(lo.Values(snap.Progresses), func(p int) bool { return p != 0 })
		if multiplayer && started == 1 {
			c.say(fmt.Sprintf("%s starts first! Dude, that's on fire", player))
		} else if !multiplayer {
			c.say("What a start! Dude, that's on fire")
		}
	}

	if progress == len(snap.Track) {
		c.mu.Lock()
		c.finishedAt[player] = snap.Total - snap.Time
		done := len(c.finishedAt)
		c.mu.Unlock()

		if len(snap.Progresses) != done+len(snap.Disconnected) {
			msg := fmt.Sprintf("%s finished!", player)
			if place, ok := places[len(snap.Finished)]; ok {
				msg += fmt.Sprintf(" That's the %s place!", place)
			}
			c.say(msg)
		}
	}

	// Near-finish remark at 30 chars out, or a third of short tracks.
	mark := len(snap.Track) / 3
	if len(snap.Track) > 90 {
		mark = 30
	}
	if len(snap.Track)-progress == mark {
		if multiplayer {
			c.say(fmt.Sprintf("%s is approaching finish!", player))
		} else {
			c.say("Buddy, you're almost there!")
		}
	}
}

func (c *Commentator) onEnd() {
	snap := c.room.Snapshot()

	c.mu.Lock()
	finishedAt := make(map[domain.PlayerID]int, len(c.finishedAt))
	for player, at := range c.finishedAt {
		finishedAt[player] = at
	}
	c.finishedAt = make(map[domain.PlayerID]int)
	c.mu.Unlock()

	board := leaderboard(snap, finishedAt)
	if len(board) == 0 {
		return
	}

	msg := fmt.Sprintf("Results: 1st %s", board[0].player)
	if len(board) > 1 {
		msg += fmt.Sprintf(", 2nd %s", board[1].player)
		if len(board) > 2 {
			msg += fmt.Sprintf(", 3rd %s!", board[2].player)
		} else {
			msg += "! Great job!"
		}
	} else {
		msg += "! Congratulations!"
	}
	c.say(msg)
}

func (c *Commentator) onJoke() {
	if c.room.Stopped() {
		return
	}
	c.say(jokes[rand.Intn(len(jokes))])
}

// say publishes a message to the group and rearms the idle filler timer.
func (c *Commentator) say(message string) {
	c.mu.Lock()
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	if !c.room.Stopped() {
		c.idleTimer = time.AfterFunc(c.idle, c.onJoke)
	}
	c.mu.Unlock()

	c.group.Send(core.Event{Kind: core.CommentatorMessage, Message: message})
}

type standing struct {
	player   domain.PlayerID
	progress int
}

func standings(progresses map[domain.PlayerID]int) []standing {
	out := lo.MapToSlice(progresses, func(player domain.PlayerID, progress int) standing {
		return standing{player: player, progress: progress}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].progress != out[j].progress {
			return out[i].progress > out[j].progress
		}
		return out[i].player < out[j].player
	})
	return out
}

// leaderboard ranks connected players: finishers by finish time, then
// the rest by progress.
func leaderboard(snap *core.Snapshot, finishedAt map[domain.PlayerID]int) []standing {
	connected := lo.OmitByKeys(snap.Progresses, snap.Disconnected)
	out := lo.MapToSlice(connected, func(player domain.PlayerID, progress int) standing {
		return standing{player: player, progress: progress}
	})
	sort.Slice(out, func(i, j int) bool {
		ti, iFin := finishedAt[out[i].player]
		tj, jFin := finishedAt[out[j].player]
		switch {
		case iFin && jFin:
			return ti < tj
		case iFin != jFin:
			return iFin
		default:
			return out[i].progress > out[j].progress
		}
	})
	return out
}
