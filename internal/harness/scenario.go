package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance test: a world, an automation profile,
// runner assignments, and assertions over the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed
	// by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Profile is inline CUE source declaring rulesets and sequences.
	Profile string `yaml:"profile"`

	// World declares nodes and optional starting bank contents.
	World WorldSpec `yaml:"world"`

	// Runners declares the automated agents and their assignments.
	Runners []RunnerSpec `yaml:"runners"`

	// Ticks is how long to run the engine.
	Ticks int `yaml:"ticks"`

	// SafetyNet overrides the engine's periodic re-evaluation interval
	// when positive.
	SafetyNet int64 `yaml:"safety_net,omitempty"`

	// Assertions validate the end state and the decision journals.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// WorldSpec declares the simulated world.
type WorldSpec struct {
	Nodes []NodeSpec     `yaml:"nodes"`
	Bank  map[string]int `yaml:"bank,omitempty"`
}

// NodeSpec declares one node.
type NodeSpec struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name,omitempty"`
	Hub         bool             `yaml:"hub,omitempty"`
	Gatherables []GatherableSpec `yaml:"gatherables,omitempty"`
	Travel      map[string]int   `yaml:"travel,omitempty"`
}

// GatherableSpec declares one gatherable at a node. Skill accepts the
// same names the profile language uses (mining, woodcutting, fishing).
type GatherableSpec struct {
	Item  string `yaml:"item"`
	Ticks int    `yaml:"ticks"`
	Skill string `yaml:"skill,omitempty"`
	XP    int    `yaml:"xp,omitempty"`
}

// RunnerSpec declares one runner and its initial assignments.
type RunnerSpec struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name,omitempty"`
	Node     string `yaml:"node"`
	Capacity int    `yaml:"capacity,omitempty"`
	HP       int    `yaml:"hp,omitempty"`

	// MacroRuleset attaches a macro ruleset from the profile.
	MacroRuleset string `yaml:"macro_ruleset,omitempty"`

	// Sequence explicitly assigns a sequence before the first tick.
	Sequence string `yaml:"sequence,omitempty"`
}

// Assertion validates one aspect of the outcome. Which fields apply
// depends on Type.
type Assertion struct {
	Type string `yaml:"type"`

	// runner_state / warning
	Runner   string  `yaml:"runner,omitempty"`
	Sequence *string `yaml:"sequence,omitempty"`
	Step     *int    `yaml:"step,omitempty"`
	State    string  `yaml:"state,omitempty"`
	Node     string  `yaml:"node,omitempty"`

	// bank_contains
	Item    string `yaml:"item,omitempty"`
	Count   *int   `yaml:"count,omitempty"`
	AtLeast *int   `yaml:"at_least,omitempty"`

	// journal_contains
	Layer  string `yaml:"layer,omitempty"`
	Action string `yaml:"action,omitempty"`

	// warning
	Contains string `yaml:"contains,omitempty"`
	Absent   bool   `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertRunnerState     = "runner_state"
	AssertBankContains    = "bank_contains"
	AssertJournalContains = "journal_contains"
	AssertWarning         = "warning"
)

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario requires a name")
	}
	if s.Profile == "" {
		return fmt.Errorf("scenario %s: profile is required", s.Name)
	}
	if len(s.World.Nodes) == 0 {
		return fmt.Errorf("scenario %s: world requires at least one node", s.Name)
	}
	if len(s.Runners) == 0 {
		return fmt.Errorf("scenario %s: at least one runner is required", s.Name)
	}
	if s.Ticks <= 0 {
		return fmt.Errorf("scenario %s: ticks must be positive", s.Name)
	}
	nodes := make(map[string]bool)
	for _, n := range s.World.Nodes {
		if n.ID == "" {
			return fmt.Errorf("scenario %s: node without id", s.Name)
		}
		if nodes[n.ID] {
			return fmt.Errorf("scenario %s: duplicate node %q", s.Name, n.ID)
		}
		nodes[n.ID] = true
	}
	runners := make(map[string]bool)
	for _, r := range s.Runners {
		if r.ID == "" {
			return fmt.Errorf("scenario %s: runner without id", s.Name)
		}
		if runners[r.ID] {
			return fmt.Errorf("scenario %s: duplicate runner %q", s.Name, r.ID)
		}
		runners[r.ID] = true
		if !nodes[r.Node] {
			return fmt.Errorf("scenario %s: runner %q starts at unknown node %q", s.Name, r.ID, r.Node)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertRunnerState, AssertWarning:
			if !runners[a.Runner] {
				return fmt.Errorf("scenario %s: assertion %d references unknown runner %q", s.Name, i, a.Runner)
			}
		case AssertBankContains:
			if a.Item == "" {
				return fmt.Errorf("scenario %s: assertion %d requires an item", s.Name, i)
			}
		case AssertJournalContains:
			if a.Layer != "macro" && a.Layer != "micro" {
				return fmt.Errorf("scenario %s: assertion %d layer must be macro or micro", s.Name, i)
			}
		default:
			return fmt.Errorf("scenario %s: unknown assertion type %q", s.Name, a.Type)
		}
	}
	return nil
}
