package core

import "github.com/dkeye/Typerace/internal/domain"

// roomState is the mutable state owned by exactly one room goroutine.
type roomState struct {
	name         domain.RoomName
	track        domain.Track
	active       bool
	countdown    int
	time         int // seconds left in the current race
	total        int // time budget of the current race
	progresses   map[domain.PlayerID]int
	disconnected map[domain.PlayerID]struct{}
	finished     map[domain.PlayerID]struct{}
}

// Snapshot is a read-only copy of room state, safe to hand to adapters
// and attachments.
type Snapshot struct {
	Name         domain.RoomName         `json:"name"`
	Track        string                  `json:"track"`
	Active       bool                    `json:"active"`
	Countdown    int                     `json:"countdown"`
	Time         int                     `json:"time"`
	Total        int                     `json:"total"`
	Progresses   map[domain.PlayerID]int `json:"progresses"`
	Disconnected []domain.PlayerID       `json:"disconnected"`
	Finished     []domain.PlayerID       `json:"finished"`
}

func (s *roomState) snapshot() *Snapshot {
	snap := &Snapshot{
		Name:         s.name,
		Track:        s.track.Text,
		Active:       s.active,
		Countdown:    s.countdown,
		Time:         s.time,
		Total:        s.total,
		Progresses:   make(map[domain.PlayerID]int, len(s.progresses)),
		Disconnected: make([]domain.PlayerID, 0, len(s.disconnected)),
		Finished:     make([]domain.PlayerID, 0, len(s.finished)),
	}
	for id, p := range s.progresses {
		snap.Progresses[id] = p
	}
	for id := range s.disconnected {
		snap.Disconnected = append(snap.Disconnected, id)
	}
	for id := range s.finished {
		snap.Finished = append(snap.Finished, id)
	}
	return snap
}

// allDisconnected reports whether every known player has left.
func (s *roomState) allDisconnected() bool {
	for id := range s.progresses {
		if _, gone := s.disconnected[id]; !gone {
			return false
		}
	}
	return true
}

// nobodyTyping reports whether every known player is finished or gone,
// i.e. the race cannot progress any further.
func (s *roomState) nobodyTyping() bool {
	for id := range s.progresses {
		if _, done := s.finished[id]; done {
			continue
		}
		if _, gone := s.disconnected[id]; gone {
			continue
		}
		return false
	}
	return true
}
