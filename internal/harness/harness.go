package harness

import (
	"fmt"

	"cuelang.org/go/cue/cuecontext"

	"github.com/emberfall/overseer/internal/compiler"
	"github.com/emberfall/overseer/internal/engine"
	"github.com/emberfall/overseer/internal/journal"
	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/sim"
)

const (
	defaultCapacity = 28
	defaultHP       = 100
)

var skillIDs = map[string]int{
	"mining":      sim.SkillMining,
	"woodcutting": sim.SkillWoodcutting,
	"fishing":     sim.SkillFishing,
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors lists failed assertions. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Macro and Micro are the full decision journals, oldest first.
	Macro []journal.Entry `json:"macro"`
	Micro []journal.Entry `json:"micro"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario: compiles its profile, builds the world,
// runs the engine for the configured tick count, then evaluates the
// assertions.
func Run(s *Scenario) (*Result, error) {
	lib, err := compileLibrary(s)
	if err != nil {
		return nil, err
	}
	w, err := buildWorld(s)
	if err != nil {
		return nil, err
	}

	var opts []engine.Option
	if s.SafetyNet > 0 {
		opts = append(opts, engine.WithSafetyNetInterval(s.SafetyNet))
	}
	e := engine.New(w, lib, opts...)

	for _, rs := range s.Runners {
		if rs.MacroRuleset != "" {
			if err := e.AssignMacroRuleset(rs.ID, rs.MacroRuleset); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
			}
		}
		if rs.Sequence != "" {
			if err := e.AssignSequence(rs.ID, rs.Sequence); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
			}
		}
	}

	e.Run(s.Ticks)

	result := &Result{
		Pass:  true,
		Macro: oldestFirst(e.MacroJournal().All()),
		Micro: oldestFirst(e.MicroJournal().All()),
	}
	for i, a := range s.Assertions {
		assertOutcome(result, e, i, a)
	}
	return result, nil
}

// compileLibrary compiles and cross-validates the scenario's inline
// CUE profile into a library.
func compileLibrary(s *Scenario) (*library.Library, error) {
	v := cuecontext.New().CompileString(s.Profile)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("scenario %s: profile: %w", s.Name, err)
	}
	p, err := compiler.CompileProfile(v)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: profile: %w", s.Name, err)
	}
	if errs := compiler.Validate(p); len(errs) > 0 {
		return nil, fmt.Errorf("scenario %s: profile: %s", s.Name, errs[0].Error())
	}

	lib := library.New()
	for i := range p.Rulesets {
		if err := lib.PutRuleset(&p.Rulesets[i]); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	for i := range p.Sequences {
		if err := lib.PutSequence(&p.Sequences[i]); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return lib, nil
}

func buildWorld(s *Scenario) (*sim.World, error) {
	w := sim.NewWorld()
	for _, ns := range s.World.Nodes {
		n := &sim.Node{
			ID:     ns.ID,
			Name:   ns.Name,
			Hub:    ns.Hub,
			Travel: ns.Travel,
		}
		if n.Name == "" {
			n.Name = ns.ID
		}
		for _, gs := range ns.Gatherables {
			skill := 0
			if gs.Skill != "" {
				id, ok := skillIDs[gs.Skill]
				if !ok {
					return nil, fmt.Errorf("scenario %s: node %s: unknown skill %q", s.Name, ns.ID, gs.Skill)
				}
				skill = id
			}
			n.Gatherables = append(n.Gatherables, sim.Gatherable{
				Item:  gs.Item,
				Ticks: gs.Ticks,
				Skill: skill,
				XP:    gs.XP,
			})
		}
		w.AddNode(n)
	}
	for item, count := range s.World.Bank {
		w.Bank[item] = count
	}

	for _, rs := range s.Runners {
		capacity := rs.Capacity
		if capacity <= 0 {
			capacity = defaultCapacity
		}
		hp := rs.HP
		if hp <= 0 {
			hp = defaultHP
		}
		name := rs.Name
		if name == "" {
			name = rs.ID
		}
		w.AddRunner(&sim.Runner{
			ID:        rs.ID,
			Name:      name,
			NodeID:    rs.Node,
			Inventory: sim.Inventory{Capacity: capacity},
			HP:        hp,
			MaxHP:     hp,
		})
	}
	return w, nil
}

func oldestFirst(entries []journal.Entry) []journal.Entry {
	out := make([]journal.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out
}
