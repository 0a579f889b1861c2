package flowstate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlowSet is the declarative config envelope for one machine: an ordered
// spec list plus the data-independent parts of the update policy. Updaters
// are code and are supplied through WithUpdates at build time.
type FlowSet struct {
	Version      int                 `json:"version,omitempty" yaml:"version,omitempty"`
	Machine      string              `json:"machine,omitempty" yaml:"machine,omitempty"`
	Specs        []FlowSpec          `json:"specs" yaml:"specs"`
	Restrictions map[string][]string `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
	Meta         map[string]any      `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Validate performs structural checks that do not require building a
// machine: a non-empty spec list and non-empty names. Full graph validation
// (duplicates, dangling targets) happens in NewMachine.
func (c FlowSet) Validate() error {
	if len(c.Specs) == 0 {
		return fmt.Errorf("flow set requires at least one spec")
	}
	for idx, spec := range c.Specs {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("spec[%d]: name is required", idx)
		}
	}
	for event := range c.Restrictions {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("restriction event name is required")
		}
	}
	return nil
}

// ParseFlowSet parses JSON or YAML into a FlowSet.
func ParseFlowSet(data []byte) (FlowSet, error) {
	var cfg FlowSet
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// yaml can handle JSON too, so a single attempt is fine
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFlowSet reads and parses a flow set file.
func LoadFlowSet(path string) (FlowSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FlowSet{}, fmt.Errorf("read flow set: %w", err)
	}
	return ParseFlowSet(data)
}

// Build constructs a machine from the flow set, merging config-borne
// restrictions with the provided options.
func Build[D any](cfg FlowSet, opts ...Option[D]) (*Machine[D], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseOpts := make([]Option[D], 0, len(opts)+2)
	if name := strings.TrimSpace(cfg.Machine); name != "" {
		baseOpts = append(baseOpts, WithName[D](name))
	}
	if len(cfg.Restrictions) > 0 {
		baseOpts = append(baseOpts, WithRestrictions[D](cfg.Restrictions))
	}
	baseOpts = append(baseOpts, opts...)
	return NewMachine(cfg.Specs, baseOpts...)
}
