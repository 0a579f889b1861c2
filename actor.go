package flowstate

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Snapshot captures the actor's observable state after an event settles.
// Events lists what the actor will accept next: edge events out of the
// current state plus update events permitted there.
type Snapshot[D any] struct {
	State    string   `json:"state"`
	Data     D        `json:"data"`
	Terminal bool     `json:"terminal"`
	Events   []string `json:"events,omitempty"`
}

// Actor is the single live instance of a machine: one mutable
// "current state + data" pair, processing one named event at a time to
// completion before the next is accepted.
type Actor[D any] struct {
	mu      sync.Mutex
	machine *Machine[D]
	current string
	data    D
	stopped bool
	subs    map[int64]func(Snapshot[D])
	nextSub int64
	logger  Logger
}

// ActorOption customizes actor startup.
type ActorOption[D any] func(*Actor[D])

// WithActorLogger overrides the logger inherited from the machine.
func WithActorLogger[D any](logger Logger) ActorOption[D] {
	return func(a *Actor[D]) {
		a.logger = normalizeLogger(logger)
	}
}

// WithData overrides the initial payload configured on the machine.
func WithData[D any](data D) ActorOption[D] {
	return func(a *Actor[D]) {
		a.data = data
	}
}

// Start produces a live actor positioned at the initial state carrying the
// initial payload. Each call owns a distinct actor; the machine itself stays
// immutable and reusable.
func (m *Machine[D]) Start(opts ...ActorOption[D]) *Actor[D] {
	a := &Actor[D]{
		machine: m,
		current: m.initial,
		data:    m.initialData,
		subs:    make(map[int64]func(Snapshot[D])),
		logger:  m.logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.logger = normalizeLogger(a.logger)
	if m.name != "" {
		a.logger = withLoggerFields(a.logger, map[string]any{"machine": m.name})
	}
	a.logger.Debug("actor started state=%s", a.current)
	return a
}

// Send applies one named event. Declared edge events move the current state;
// update events replace the payload through their updater. An event that does
// not apply in the current state is a no-op: undeclared edge events are
// ignored, restricted update events fired from a disallowed state are dropped
// with a warning. Sending to a stopped actor returns FLOW_ACTOR_STOPPED.
func (a *Actor[D]) Send(ctx context.Context, event string, value any) (Snapshot[D], error) {
	event = strings.TrimSpace(event)

	a.mu.Lock()
	if a.stopped {
		defer a.mu.Unlock()
		return a.snapshotLocked(), cloneErr(ErrActorStopped, "", nil, a.machine.errMetadata(map[string]any{"event": event}))
	}

	logger := withLoggerFields(a.logger.WithContext(ctx), map[string]any{
		"event": event,
		"state": a.current,
	})

	applied := false
	switch {
	case event == "":
		logger.Debug("ignoring empty event")
	case a.applyUpdateLocked(event, value, logger):
		applied = true
	case a.applyEdgeLocked(event, logger):
		applied = true
	}

	snapshot := a.snapshotLocked()
	var listeners []func(Snapshot[D])
	if applied {
		listeners = make([]func(Snapshot[D]), 0, len(a.subs))
		for _, fn := range a.subs {
			listeners = append(listeners, fn)
		}
	}
	a.mu.Unlock()

	// Listeners run after the event committed, outside the actor lock, so a
	// listener may read the handle without self-deadlocking.
	for _, fn := range listeners {
		fn(snapshot)
	}
	return snapshot, nil
}

func (a *Actor[D]) applyUpdateLocked(event string, value any, logger Logger) bool {
	updater, ok := a.machine.updates[event]
	if !ok {
		return false
	}
	if !a.machine.updateAllowed(event, a.current) {
		logger.Warn("update event %q not permitted in state %q, dropping", event, a.current)
		return false
	}
	a.data = updater(a.data, value, a.current)
	logger.Debug("update event applied")
	return true
}

func (a *Actor[D]) applyEdgeLocked(event string, logger Logger) bool {
	target, ok := a.machine.edges[transitionKey(a.current, event)]
	if !ok {
		logger.Debug("event %q does not apply in state %q, ignoring", event, a.current)
		return false
	}
	previous := a.current
	a.current = target
	logger.Info("transition %s -> %s", previous, target)
	return true
}

// Snapshot returns the current observable state without applying an event.
func (a *Actor[D]) Snapshot() Snapshot[D] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Current returns the current state name.
func (a *Actor[D]) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Data returns the current payload.
func (a *Actor[D]) Data() D {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Subscribe registers fn to run after every applied change. It returns a
// cancel function; cancel is idempotent. No-op events do not notify.
func (a *Actor[D]) Subscribe(fn func(Snapshot[D])) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return func() {}
	}
	a.nextSub++
	id := a.nextSub
	a.subs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs, id)
	}
}

// Stop tears the actor down synchronously: subscriptions are dropped and
// subsequent sends fail. Stop is idempotent.
func (a *Actor[D]) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	a.subs = nil
	a.logger.Debug("actor stopped state=%s", a.current)
}

// Stopped reports whether the actor has been torn down.
func (a *Actor[D]) Stopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// Handle returns a caller-owned debug handle for console-style stepping and
// payload inspection. The handle shares the actor's lifecycle: it errors
// after Stop.
func (a *Actor[D]) Handle() *Handle[D] {
	return &Handle[D]{actor: a}
}

func (a *Actor[D]) snapshotLocked() Snapshot[D] {
	snapshot := Snapshot[D]{
		State:    a.current,
		Data:     a.data,
		Terminal: a.machine.terminal[a.current],
	}
	events := make([]string, 0, len(a.machine.outgoing[a.current])+len(a.machine.updates))
	events = append(events, a.machine.outgoing[a.current]...)
	for event := range a.machine.updates {
		if a.machine.updateAllowed(event, a.current) {
			events = append(events, event)
		}
	}
	sort.Strings(events)
	if len(events) > 0 {
		snapshot.Events = events
	}
	return snapshot
}

// Handle is the debug surface over a live actor: a payload accessor and an
// event sender, owned by the caller rather than installed globally.
type Handle[D any] struct {
	actor *Actor[D]
}

// Get returns the actor's current payload.
func (h *Handle[D]) Get() D {
	return h.actor.Data()
}

// Snapshot returns the actor's current observable state.
func (h *Handle[D]) Snapshot() Snapshot[D] {
	return h.actor.Snapshot()
}

// Send fires a named event with an optional value.
func (h *Handle[D]) Send(ctx context.Context, event string, value any) (Snapshot[D], error) {
	return h.actor.Send(ctx, event, value)
}

// SendEvent fires a named event discarding the snapshot. It satisfies the
// sched.EventSender contract.
func (h *Handle[D]) SendEvent(ctx context.Context, event string, value any) error {
	_, err := h.actor.Send(ctx, event, value)
	return err
}
