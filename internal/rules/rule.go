package rules

import "strings"

// Category identifies which layer a ruleset belongs to.
type Category string

const (
	// Macro rulesets decide which task sequence a runner executes.
	Macro Category = "macro"
	// Micro rulesets decide in-step behavior during a work step.
	Micro Category = "micro"
)

// Rule is the atomic unit of automation: an AND-composed condition list
// plus one action. Conditions are never evaluated independently of their
// rule. An empty condition list is equivalent to a single Always.
type Rule struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`

	// Enabled rules participate in evaluation; disabled rules are
	// skipped without touching their conditions.
	Enabled bool `json:"enabled"`

	// FinishSequence defers an assign_sequence action to the current
	// cycle's loop boundary. Macro layer only; default true.
	FinishSequence bool `json:"finish_sequence"`

	Conditions []Condition `json:"conditions"`
	Action     Action      `json:"action"`
}

// NewRule returns an enabled rule with the finish-sequence default.
func NewRule(action Action, conditions ...Condition) Rule {
	return Rule{
		Enabled:        true,
		FinishSequence: true,
		Conditions:     conditions,
		Action:         action,
	}
}

// Holds ANDs the rule's conditions against live state, short-circuiting
// on the first false. An empty condition list holds unconditionally.
func (r Rule) Holds(v StateView) bool {
	for _, c := range r.Conditions {
		if !Evaluate(c, v) {
			return false
		}
	}
	return true
}

// Snapshot renders the live values of every condition, joined with
// " && ". Call only for a rule that just matched, so the snapshot
// records exactly what made it fire.
func (r Rule) Snapshot(v StateView) string {
	if len(r.Conditions) == 0 {
		return "always"
	}
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		parts[i] = Describe(c, v)
	}
	return strings.Join(parts, " && ")
}

// Ruleset is an ordered, named, shareable rule list. Runners and work
// steps reference rulesets by ID through a library; they never own one.
type Ruleset struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Rules    []Rule   `json:"rules"`
}

// Match describes the single rule a ruleset pass fired.
type Match struct {
	Index    int
	Rule     Rule
	Snapshot string
}

// Evaluate runs first-match-wins over the ruleset: top to bottom, skip
// disabled rules, AND each enabled rule's conditions with short-circuit,
// stop at the first rule whose conditions all hold. No rule after the
// match is considered in this pass. Returns false if nothing fired;
// callers treat that as a stall, not an error.
func (rs *Ruleset) Evaluate(v StateView) (Match, bool) {
	for i, r := range rs.Rules {
		if !r.Enabled {
			continue
		}
		if r.Holds(v) {
			return Match{Index: i, Rule: r, Snapshot: r.Snapshot(v)}, true
		}
	}
	return Match{}, false
}

// Clone returns a deep copy sharing no slices with the original.
// The caller assigns the copy's new identity.
func (rs *Ruleset) Clone() *Ruleset {
	out := &Ruleset{
		ID:       rs.ID,
		Name:     rs.Name,
		Category: rs.Category,
		Rules:    make([]Rule, len(rs.Rules)),
	}
	for i, r := range rs.Rules {
		cr := r
		cr.Conditions = append([]Condition(nil), r.Conditions...)
		out.Rules[i] = cr
	}
	return out
}
