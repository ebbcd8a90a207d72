package commentator_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Typerace/internal/app/commentator"
	"github.com/dkeye/Typerace/internal/core"
	"github.com/dkeye/Typerace/internal/domain"
)

type recordingGroup struct {
	mu       sync.Mutex
	messages []string
}

func (g *recordingGroup) Send(ev core.Event) {
	if ev.Kind != core.CommentatorMessage {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, ev.Message)
}

func (g *recordingGroup) Messages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.messages))
	copy(out, g.messages)
	return out
}

func (g *recordingGroup) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.messages)
}

type staticTracks struct {
	text string
}

func (s staticTracks) Random() domain.Track {
	return domain.Track{ID: "t1", Text: s.text}
}

func setup(t *testing.T, trackLen int) (*recordingGroup, *core.Room, *commentator.Commentator) {
	t.Helper()
	group := &recordingGroup{}
	room := core.NewRoom("room", staticTracks{text: strings.Repeat("x", trackLen)}, group, core.Options{Tick: time.Hour})
	t.Cleanup(room.Stop)
	c := commentator.New(group, room, time.Hour)
	room.Attach(c)
	room.Start()
	return group, room, c
}

func await(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, time.Millisecond, msg)
}

func TestCountdownRemarks(t *testing.T) {
	group, _, c := setup(t, 30)

	c.HandleEvent(core.Event{Kind: core.RoomCountdown, Seconds: 6})
	c.HandleEvent(core.Event{Kind: core.RoomCountdown, Seconds: 5})
	c.HandleEvent(core.Event{Kind: core.RoomCountdown, Seconds: 4})
	c.HandleEvent(core.Event{Kind: core.RoomCountdown, Seconds: 2})

	assert.Equal(t, []string{
		"Racers, prepare your keyboards!",
		"Ready...",
		"Steady!..",
	}, group.Messages())
}

func TestStartRemark(t *testing.T) {
	group, _, c := setup(t, 30)

	c.HandleEvent(core.Event{Kind: core.RoomStart})

	assert.Equal(t, []string{"Go!"}, group.Messages())
}

func TestGreetingBeforeRace(t *testing.T) {
	group, _, c := setup(t, 30)

	c.HandleEvent(core.Event{Kind: core.PlayerJoined, Player: "alice"})

	require.Equal(t, 1, group.Len())
	assert.Contains(t, group.Messages()[0], "Greetings")
}

func TestFinishPlaceRemark(t *testing.T) {
	group, room, c := setup(t, 10)
	_ = c

	room.Dispatch(core.Event{Kind: core.PlayerJoined, Player: "alice"})
	room.Dispatch(core.Event{Kind: core.PlayerJoined, Player: "bob"})
	room.Dispatch(core.Event{Kind: core.RoomStart})
	await(t, room.Active, "race started")

	room.Dispatch(core.Event{Kind: core.PlayerProgress, Player: "alice", Progress: 10})
	await(t, func() bool { return len(room.Snapshot().Finished) == 1 }, "alice finished")

	await(t, func() bool {
		for _, msg := range group.Messages() {
			if strings.Contains(msg, "alice finished!") && strings.Contains(msg, "first place") {
				return true
			}
		}
		return false
	}, "finish remark published")
}

func TestResultsOnRoomEnd(t *testing.T) {
	group, room, c := setup(t, 10)
	_ = c

	room.Dispatch(core.Event{Kind: core.PlayerJoined, Player: "alice"})
	room.Dispatch(core.Event{Kind: core.PlayerJoined, Player: "bob"})
	room.Dispatch(core.Event{Kind: core.RoomStart})
	await(t, room.Active, "race started")

	room.Dispatch(core.Event{Kind: core.PlayerProgress, Player: "alice", Progress: 10})
	room.Dispatch(core.Event{Kind: core.PlayerProgress, Player: "bob", Progress: 10})
	await(t, func() bool { return !room.Active() }, "race ended")

	await(t, func() bool {
		for _, msg := range group.Messages() {
			if strings.Contains(msg, "Results:") {
				return true
			}
		}
		return false
	}, "results published")
}

func TestCommentatorNeverMutatesRoom(t *testing.T) {
	_, room, c := setup(t, 30)

	room.Dispatch(core.Event{Kind: core.PlayerJoined, Player: "alice"})
	await(t, func() bool { return room.HasPlayer("alice") }, "alice joined")

	before := room.Snapshot()
	c.HandleEvent(core.Event{Kind: core.RoomCountdown, Seconds: 6})
	c.HandleEvent(core.Event{Kind: core.PlayerProgress, Player: "alice", Progress: 1})
	c.HandleEvent(core.Event{Kind: core.RoomEnd})
	after := room.Snapshot()

	assert.Equal(t, before.Progresses, after.Progresses)
	assert.Equal(t, before.Countdown, after.Countdown)
	assert.Equal(t, before.Active, after.Active)
	assert.Equal(t, before.Track, after.Track)
}

func TestIdleJoke(t *testing.T) {
	group := &recordingGroup{}
	room := core.NewRoom("room", staticTracks{text: strings.Repeat("x", 30)}, group, core.Options{Tick: time.Hour})
	t.Cleanup(room.Stop)
	c := commentator.New(group, room, 5*time.Millisecond)

	c.HandleEvent(core.Event{Kind: core.RoomStart}) // "Go!" arms the idle timer

	await(t, func() bool { return group.Len() >= 2 }, "a filler remark follows the silence")
}

func TestNoJokesAfterRoomStops(t *testing.T) {
	group := &recordingGroup{}
	room := core.NewRoom("room", staticTracks{text: strings.Repeat("x", 30)}, group, core.Options{Tick: time.Hour})
	c := commentator.New(group, room, 5*time.Millisecond)

	c.HandleEvent(core.Event{Kind: core.RoomStart})
	room.Stop()

	time.Sleep(30 * time.Millisecond)
	count := group.Len()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, count, group.Len(), "idle chatter stops with the room")
}
