package sim

// RunnerState is the mechanical sub-state of a runner. Values are also
// exposed to conditions through the int-valued runner_state_is check.
type RunnerState int

const (
	StateIdle RunnerState = iota
	StateTraveling
	StateGathering
	StateDepositing
)

var runnerStateNames = map[RunnerState]string{
	StateIdle:       "idle",
	StateTraveling:  "traveling",
	StateGathering:  "gathering",
	StateDepositing: "depositing",
}

func (s RunnerState) String() string {
	if name, ok := runnerStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Skill identifiers for the skill_level condition and gatherable XP.
const (
	SkillMining = iota
	SkillWoodcutting
	SkillFishing
)

// xpPerLevel keeps progression linear; skill formulas are not this
// package's concern, only that levels change and fire events.
const xpPerLevel = 100

// SkillState tracks one skill's progression.
type SkillState struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

// Inventory is a fixed-capacity, non-stacking slot list: every gathered
// item occupies one slot.
type Inventory struct {
	Capacity int      `json:"capacity"`
	Slots    []string `json:"slots"`
}

// Add places one item, returning false when no slot is free.
func (inv *Inventory) Add(item string) bool {
	if inv.Full() {
		return false
	}
	inv.Slots = append(inv.Slots, item)
	return true
}

// Count returns how many slots hold the item.
func (inv *Inventory) Count(item string) int {
	n := 0
	for _, s := range inv.Slots {
		if s == item {
			n++
		}
	}
	return n
}

func (inv *Inventory) FreeSlots() int { return inv.Capacity - len(inv.Slots) }
func (inv *Inventory) Full() bool     { return len(inv.Slots) >= inv.Capacity }

// Drain empties the inventory, returning item counts.
func (inv *Inventory) Drain() map[string]int {
	out := make(map[string]int, len(inv.Slots))
	for _, s := range inv.Slots {
		out[s]++
	}
	inv.Slots = inv.Slots[:0]
	return out
}

// Automation is the runner's automation state. Mutated only by the
// evaluation scheduler and by explicit assignment commands; lives and
// dies with the runner record.
type Automation struct {
	// SequenceID is the active task sequence, "" when none.
	SequenceID string `json:"sequence_id,omitempty"`

	// StepIndex is the current step within the active sequence.
	StepIndex int `json:"step_index"`

	// MacroRulesetID selects the macro ruleset, "" when none.
	MacroRulesetID string `json:"macro_ruleset_id,omitempty"`

	// SuspendedUntilLoop is set while a deferred sequence swap is
	// committed and waiting for the loop boundary; macro rules are not
	// re-evaluated while it holds.
	SuspendedUntilLoop bool `json:"suspended_until_loop"`

	// PendingSequenceID is the deferred swap target, "" when none.
	PendingSequenceID string `json:"pending_sequence_id,omitempty"`

	// Warning is the human-readable diagnostic for a configuration
	// error or stall, "" when healthy. Re-checked every evaluation pass.
	Warning string `json:"warning,omitempty"`
}

// Runner is one automated agent: mechanical state plus automation state.
type Runner struct {
	ID   string
	Name string

	// Creation is the stable evaluation-order index.
	Creation int

	NodeID    string
	Inventory Inventory
	Skills    map[int]*SkillState
	HP        int
	MaxHP     int

	State RunnerState

	// Mechanical operation fields; which are live depends on State.
	DestNodeID       string
	TravelRemaining  int
	GatherIndex      int
	GatherProgress   int
	DepositRemaining int

	Automation Automation
}

// Skill returns the runner's state for a skill, creating it at level 1.
func (r *Runner) Skill(id int) *SkillState {
	if r.Skills == nil {
		r.Skills = make(map[int]*SkillState)
	}
	s, ok := r.Skills[id]
	if !ok {
		s = &SkillState{Level: 1}
		r.Skills[id] = s
	}
	return s
}

// StopWork halts gathering or depositing, leaving travel alone. Used by
// the idle action and on step changes.
func (r *Runner) StopWork() {
	if r.State == StateGathering || r.State == StateDepositing {
		r.State = StateIdle
		r.GatherProgress = 0
		r.DepositRemaining = 0
	}
}

// Interrupt is the immediate-override request. Travel and gathering are
// interruptible (the runner halts at its origin node, progress lost);
// an in-flight deposit is not - it completes on its own schedule and
// the caller's new sequence simply finds the inventory empty.
func (r *Runner) Interrupt() {
	switch r.State {
	case StateTraveling:
		r.State = StateIdle
		r.DestNodeID = ""
		r.TravelRemaining = 0
	case StateGathering:
		r.State = StateIdle
		r.GatherProgress = 0
	}
}
