package flowstate

import (
	"bytes"
	"strings"
	"testing"
)

type docData struct {
	X int `json:"x"`
}

func editorSpecs() []FlowSpec {
	return []FlowSpec{
		{Name: "Init", To: []string{"Edit"}},
		{Name: "Edit", To: []string{"Saved"}},
		{Name: "Saved", Terminal: true},
	}
}

func TestNewMachineBuildsTransitionTable(t *testing.T) {
	m, err := NewMachine[docData](editorSpecs(), WithName[docData]("editor"))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if m.Initial() != "Init" {
		t.Fatalf("expected initial state Init, got %q", m.Initial())
	}
	if got := m.States(); len(got) != 3 || got[0] != "Init" || got[2] != "Saved" {
		t.Fatalf("unexpected state order: %v", got)
	}
	if !m.IsTerminal("Saved") || m.IsTerminal("Edit") {
		t.Fatalf("unexpected terminal flags")
	}

	transitions := m.Transitions()
	if len(transitions) != 2 {
		t.Fatalf("expected two transitions, got %d", len(transitions))
	}
	first := transitions[0]
	if first.Event != EdgeEvent("Edit") || first.From != "Init" || first.To != "Edit" {
		t.Fatalf("unexpected first transition: %+v", first)
	}
	if transitions[1].Event != "GOTO_Saved" {
		t.Fatalf("expected edge event named by prefix+target, got %q", transitions[1].Event)
	}
}

func TestNewMachineTrimsSpecNames(t *testing.T) {
	m, err := NewMachine[docData]([]FlowSpec{
		{Name: " Init ", To: []string{" Done "}},
		{Name: "Done", Terminal: true},
	})
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if m.Initial() != "Init" {
		t.Fatalf("expected trimmed initial state, got %q", m.Initial())
	}
	if transitions := m.Transitions(); transitions[0].To != "Done" {
		t.Fatalf("expected trimmed target, got %q", transitions[0].To)
	}
}

func TestNewMachineConstructionErrors(t *testing.T) {
	cases := []struct {
		name string
		spec []FlowSpec
		opts []Option[docData]
		code string
	}{
		{
			name: "empty spec list",
			spec: nil,
			code: ErrCodeEmptySpec,
		},
		{
			name: "duplicate state name",
			spec: []FlowSpec{{Name: "Init"}, {Name: " Init "}},
			code: ErrCodeDuplicateState,
		},
		{
			name: "empty state name",
			spec: []FlowSpec{{Name: "  "}},
			code: ErrCodeEmptyStateName,
		},
		{
			name: "dangling target",
			spec: []FlowSpec{{Name: "Init", To: []string{"Missing"}}},
			code: ErrCodeDanglingTarget,
		},
		{
			name: "dangling target on terminal state",
			spec: []FlowSpec{{Name: "Init", Terminal: true, To: []string{"Missing"}}},
			code: ErrCodeDanglingTarget,
		},
		{
			name: "update event collides with edge event",
			spec: editorSpecs(),
			opts: []Option[docData]{WithUpdates(UpdateMap[docData]{
				"GOTO_Edit": func(prev docData, _ any, _ string) docData { return prev },
			})},
			code: ErrCodeEventCollision,
		},
		{
			name: "restriction for unknown event",
			spec: editorSpecs(),
			opts: []Option[docData]{WithRestrictions[docData](RestrictionMap{
				"SET_X": {"Edit"},
			})},
			code: ErrCodeUnknownEvent,
		},
		{
			name: "restriction references unknown state",
			spec: editorSpecs(),
			opts: []Option[docData]{
				WithUpdates(UpdateMap[docData]{
					"SET_X": func(prev docData, _ any, _ string) docData { return prev },
				}),
				WithRestrictions[docData](RestrictionMap{"SET_X": {"Nowhere"}}),
			},
			code: ErrCodeUnknownState,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMachine(tc.spec, tc.opts...)
			if err == nil {
				t.Fatalf("expected construction failure")
			}
			if got := ErrorCode(err); got != tc.code {
				t.Fatalf("expected error code %s, got %s (%v)", tc.code, got, err)
			}
		})
	}
}

func TestNewMachineIgnoresTerminalEdgesWithWarning(t *testing.T) {
	buf := &bytes.Buffer{}
	m, err := NewMachine[docData]([]FlowSpec{
		{Name: "Init", To: []string{"Done"}},
		{Name: "Done", Terminal: true, To: []string{"Init"}},
	}, WithLogger[docData](NewFmtLogger(buf)))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if len(m.Transitions()) != 1 {
		t.Fatalf("expected terminal edges to be dropped, got %v", m.Transitions())
	}
	if !strings.Contains(buf.String(), "terminal state") {
		t.Fatalf("expected terminal edge warning, got %q", buf.String())
	}
}

func TestNewMachineDropsDuplicateEdges(t *testing.T) {
	buf := &bytes.Buffer{}
	m, err := NewMachine[docData]([]FlowSpec{
		{Name: "Init", To: []string{"Done", "Done"}},
		{Name: "Done", Terminal: true},
	}, WithLogger[docData](NewFmtLogger(buf)))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if len(m.Transitions()) != 1 {
		t.Fatalf("expected one transition, got %v", m.Transitions())
	}
	if !strings.Contains(buf.String(), "duplicate") {
		t.Fatalf("expected duplicate edge warning, got %q", buf.String())
	}
}

func TestUpdateEventsSorted(t *testing.T) {
	m, err := NewMachine(editorSpecs(), WithUpdates(UpdateMap[docData]{
		"SET_X":   func(prev docData, _ any, _ string) docData { return prev },
		"CLEAR_X": func(prev docData, _ any, _ string) docData { return prev },
	}))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	events := m.UpdateEvents()
	if len(events) != 2 || events[0] != "CLEAR_X" || events[1] != "SET_X" {
		t.Fatalf("expected sorted update events, got %v", events)
	}
}
