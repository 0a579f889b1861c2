package flowstate

import (
	"sort"
	"strings"
)

// EdgeEventPrefix is the fixed literal used to derive edge event names from
// target state names.
const EdgeEventPrefix = "GOTO_"

// EdgeEvent returns the event name that moves the machine to target.
func EdgeEvent(target string) string {
	return EdgeEventPrefix + strings.TrimSpace(target)
}

// Updater computes a replacement data payload from the previous payload, the
// value carried by the event, and the current state name. Updaters are
// expected to be pure and synchronous.
type Updater[D any] func(prev D, value any, state string) D

// UpdateMap binds global update event names to updaters.
type UpdateMap[D any] map[string]Updater[D]

// RestrictionMap gates which states a given update event may fire from.
// Events without an entry are unrestricted.
type RestrictionMap map[string][]string

// Transition is one compiled edge of the machine.
type Transition struct {
	Event string
	From  string
	To    string
}

// Machine is a validated, immutable transition table ready to be started.
// It owns no mutable runtime state; Start produces the single live actor.
type Machine[D any] struct {
	name         string
	initial      string
	states       []string
	terminal     map[string]bool
	edges        map[string]string
	outgoing     map[string][]string
	updates      UpdateMap[D]
	restrictions map[string]map[string]struct{}
	initialData  D
	logger       Logger
}

// Option customizes machine construction.
type Option[D any] func(*Machine[D])

// WithName sets the machine name used in logs and error metadata.
func WithName[D any](name string) Option[D] {
	return func(m *Machine[D]) {
		m.name = strings.TrimSpace(name)
	}
}

// WithLogger sets the machine logger.
func WithLogger[D any](logger Logger) Option[D] {
	return func(m *Machine[D]) {
		m.logger = normalizeLogger(logger)
	}
}

// WithInitialData sets the payload the actor starts with.
func WithInitialData[D any](data D) Option[D] {
	return func(m *Machine[D]) {
		m.initialData = data
	}
}

// WithUpdates installs global update event handlers.
func WithUpdates[D any](updates UpdateMap[D]) Option[D] {
	return func(m *Machine[D]) {
		m.updates = updates
	}
}

// WithRestrictions gates update events to the given state sets.
func WithRestrictions[D any](restrictions RestrictionMap) Option[D] {
	return func(m *Machine[D]) {
		m.restrictions = make(map[string]map[string]struct{}, len(restrictions))
		for event, states := range restrictions {
			set := make(map[string]struct{}, len(states))
			for _, state := range states {
				set[strings.TrimSpace(state)] = struct{}{}
			}
			m.restrictions[strings.TrimSpace(event)] = set
		}
	}
}

// NewMachine validates specs and compiles the transition table. The first
// spec is the initial state. Construction fails on an empty spec list,
// duplicate state names, dangling transition targets, update events that
// collide with edge events, and restrictions referencing unknown states or
// events.
func NewMachine[D any](specs []FlowSpec, opts ...Option[D]) (*Machine[D], error) {
	specs = NormalizeSpecs(specs)

	m := &Machine[D]{
		terminal: make(map[string]bool, len(specs)),
		edges:    make(map[string]string),
		outgoing: make(map[string][]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.logger = normalizeLogger(m.logger)
	logger := m.logger
	if m.name != "" {
		logger = withLoggerFields(logger, map[string]any{"machine": m.name})
	}

	if len(specs) == 0 {
		return nil, cloneErr(ErrEmptySpec, "", nil, m.errMetadata(nil))
	}

	declared := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, cloneErr(ErrEmptyStateName, "", nil, m.errMetadata(nil))
		}
		if _, exists := declared[spec.Name]; exists {
			return nil, cloneErr(ErrDuplicateState, "", nil, m.errMetadata(map[string]any{"state": spec.Name}))
		}
		declared[spec.Name] = struct{}{}
		m.states = append(m.states, spec.Name)
		m.terminal[spec.Name] = spec.Terminal
	}
	m.initial = specs[0].Name

	for _, spec := range specs {
		if spec.Terminal && len(spec.To) > 0 {
			logger.Warn("terminal state %q declares outgoing edges, ignoring", spec.Name)
		}
		for _, target := range spec.To {
			if _, ok := declared[target]; !ok {
				return nil, cloneErr(ErrDanglingTarget, "", nil, m.errMetadata(map[string]any{
					"state":  spec.Name,
					"target": target,
				}))
			}
			if spec.Terminal {
				continue
			}
			event := EdgeEvent(target)
			key := transitionKey(spec.Name, event)
			if _, exists := m.edges[key]; exists {
				logger.Warn("state %q declares edge to %q more than once, ignoring duplicate", spec.Name, target)
				continue
			}
			m.edges[key] = target
			m.outgoing[spec.Name] = append(m.outgoing[spec.Name], event)
		}
	}
	for _, events := range m.outgoing {
		sort.Strings(events)
	}

	if err := m.validateUpdates(declared); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Machine[D]) validateUpdates(declared map[string]struct{}) error {
	for event := range m.updates {
		if strings.TrimSpace(event) == "" {
			return cloneErr(ErrUnknownEvent, "update event name is empty", nil, m.errMetadata(nil))
		}
		if target, ok := strings.CutPrefix(event, EdgeEventPrefix); ok {
			if _, exists := declared[target]; exists {
				return cloneErr(ErrEventCollision, "", nil, m.errMetadata(map[string]any{"event": event}))
			}
		}
	}
	for event, states := range m.restrictions {
		if _, ok := m.updates[event]; !ok {
			return cloneErr(ErrUnknownEvent, "", nil, m.errMetadata(map[string]any{"event": event}))
		}
		for state := range states {
			if _, ok := declared[state]; !ok {
				return cloneErr(ErrUnknownState, "", nil, m.errMetadata(map[string]any{
					"event": event,
					"state": state,
				}))
			}
		}
	}
	return nil
}

// Name returns the machine name.
func (m *Machine[D]) Name() string {
	return m.name
}

// Initial returns the initial state name.
func (m *Machine[D]) Initial() string {
	return m.initial
}

// States returns state names in declaration order.
func (m *Machine[D]) States() []string {
	out := make([]string, len(m.states))
	copy(out, m.states)
	return out
}

// IsTerminal reports whether the named state is absorbing.
func (m *Machine[D]) IsTerminal(state string) bool {
	return m.terminal[strings.TrimSpace(state)]
}

// Transitions returns the compiled edge table sorted by state declaration
// order, then by event name.
func (m *Machine[D]) Transitions() []Transition {
	out := make([]Transition, 0, len(m.edges))
	for _, state := range m.states {
		for _, event := range m.outgoing[state] {
			out = append(out, Transition{
				Event: event,
				From:  state,
				To:    m.edges[transitionKey(state, event)],
			})
		}
	}
	return out
}

// UpdateEvents returns the sorted names of installed global update events.
func (m *Machine[D]) UpdateEvents() []string {
	out := make([]string, 0, len(m.updates))
	for event := range m.updates {
		out = append(out, event)
	}
	sort.Strings(out)
	return out
}

// updateAllowed reports whether event may fire while in state. Events
// without a restriction entry are unrestricted.
func (m *Machine[D]) updateAllowed(event, state string) bool {
	states, ok := m.restrictions[event]
	if !ok {
		return true
	}
	_, allowed := states[state]
	return allowed
}

func (m *Machine[D]) errMetadata(extra map[string]any) map[string]any {
	metadata := map[string]any{}
	if m.name != "" {
		metadata["machine"] = m.name
	}
	for k, v := range extra {
		metadata[k] = v
	}
	return metadata
}

func transitionKey(state, event string) string {
	return state + "::" + event
}
