// Package flowstate turns a declarative list of named states and allowed
// transitions into a runnable, inspectable finite-state machine that can
// optionally carry an evolving, typed data payload.
package flowstate

import "strings"

// FlowSpec declares one state and its permitted outgoing transitions.
// The first spec in a set is the initial state. Terminal states are
// absorbing: they accept no outgoing events.
type FlowSpec struct {
	Name     string   `json:"name" yaml:"name"`
	To       []string `json:"to,omitempty" yaml:"to,omitempty"`
	Terminal bool     `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// NormalizeSpecs trims state and target names and defaults missing fields.
// It is a pure mapping with no error conditions; validation happens during
// machine construction.
func NormalizeSpecs(specs []FlowSpec) []FlowSpec {
	if len(specs) == 0 {
		return nil
	}
	out := make([]FlowSpec, 0, len(specs))
	for _, spec := range specs {
		norm := FlowSpec{
			Name:     strings.TrimSpace(spec.Name),
			Terminal: spec.Terminal,
		}
		if len(spec.To) > 0 {
			norm.To = make([]string, 0, len(spec.To))
			for _, target := range spec.To {
				norm.To = append(norm.To, strings.TrimSpace(target))
			}
		}
		out = append(out, norm)
	}
	return out
}
