package core

import (
	"github.com/rs/zerolog/log"
)

// Handler reacts to one event on the room's dispatch goroutine.
type Handler func(Event)

// Notifier is a per-room publish/subscribe dispatcher. In-process handlers
// run synchronously in registration order; broadcast additionally fans out
// to the room's connection group and to attachments, fire-and-forget.
// Not safe for concurrent writers: the owning room serializes all emits.
type Notifier struct {
	handlers    map[EventKind][]Handler
	group       Group
	attachments []Attachment
}

func NewNotifier(group Group) *Notifier {
	return &Notifier{
		handlers: make(map[EventKind][]Handler),
		group:    group,
	}
}

// On registers a handler; multiple handlers per kind are invoked in
// registration order. Returns the notifier for chaining.
func (n *Notifier) On(kind EventKind, h Handler) *Notifier {
	n.handlers[kind] = append(n.handlers[kind], h)
	return n
}

// AddAttachment subscribes an external consumer to every broadcast event.
// No replay: events emitted before attachment are never seen.
func (n *Notifier) AddAttachment(att Attachment) *Notifier {
	n.attachments = append(n.attachments, att)
	return n
}

// EmitLocal invokes in-process handlers only.
func (n *Notifier) EmitLocal(ev Event) {
	for _, h := range n.handlers[ev.Kind] {
		invoke(h, ev)
	}
}

// EmitExternal forwards the event to the connection group and attachments
// without touching in-process handlers.
func (n *Notifier) EmitExternal(ev Event) {
	if n.group != nil {
		func() {
			defer recoverEvent(ev, "group")
			n.group.Send(ev)
		}()
	}
	for _, att := range n.attachments {
		a := att
		func() {
			defer recoverEvent(ev, "attachment")
			a.HandleEvent(ev)
		}()
	}
}

// EmitBroadcast invokes in-process handlers, then external consumers.
func (n *Notifier) EmitBroadcast(ev Event) {
	n.EmitLocal(ev)
	n.EmitExternal(ev)
}

// invoke isolates a panicking handler so the rest still run.
func invoke(h Handler, ev Event) {
	defer recoverEvent(ev, "handler")
	h(ev)
}

func recoverEvent(ev Event, where string) {
	if r := recover(); r != nil {
		log.Error().
			Str("module", "core.notifier").
			Str("event", ev.Kind.String()).
			Str("consumer", where).
			Any("panic", r).
			Msg("event consumer panicked")
	}
}
