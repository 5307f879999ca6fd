package engine

import (
	"fmt"

	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// evaluateMacro runs the macro layer for one runner: it selects which
// task sequence governs the runner, or applies an emergency mechanical
// action directly.
func (e *Engine) evaluateMacro(r *sim.Runner) {
	e.lastMacroEval[r.ID] = e.world.Tick

	// A committed deferred swap owns the runner until the loop boundary
	// (or an explicit resume command).
	if r.Automation.SuspendedUntilLoop {
		return
	}

	id := r.Automation.MacroRulesetID
	if id == "" {
		e.clearWarning(r, warnMacro)
		return
	}
	rs, ok := e.lib.Ruleset(id)
	if !ok {
		e.setWarning(r, warnMacro, "macro ruleset %q not found", id)
		return
	}
	if rs.Category != rules.Macro {
		e.setWarning(r, warnMacro, "ruleset %q is not a macro ruleset", rs.ID)
		return
	}

	view := runnerView{w: e.world, r: r}
	m, matched := rs.Evaluate(view)
	if !matched {
		e.setWarning(r, warnMacro, "no rule matched in ruleset %q", rs.ID)
		e.journalStall(e.macroLog, e.lastMacroFire, r, string(rules.Macro), rs.ID)
		return
	}
	e.clearWarning(r, warnMacro)

	node := r.NodeID
	if m.Rule.Action.Kind == rules.ActAssignSequence {
		e.applyAssignSequence(r, rs.ID, node, m)
		return
	}
	if err := e.applyMacroAction(r, m.Rule.Action); err != nil {
		e.setWarning(r, warnMacro, "%v", err)
		return
	}
	e.journalFire(e.macroLog, e.lastMacroFire, r, string(rules.Macro), rs.ID, node, m, false)
}

// applyAssignSequence implements the sequence swap protocol.
func (e *Engine) applyAssignSequence(r *sim.Runner, rulesetID, node string, m rules.Match) {
	newID := m.Rule.Action.Sequence
	if _, ok := e.lib.Sequence(newID); !ok {
		e.setWarning(r, warnMacro, "sequence %q not found", newID)
		return
	}

	active := r.Automation.SequenceID

	// Re-assigning the active sequence is a legal no-op; the journal
	// dedupe makes it a logged-once outcome.
	if active == newID && r.Automation.PendingSequenceID == "" {
		e.journalFire(e.macroLog, e.lastMacroFire, r, string(rules.Macro), rulesetID, node, m, false)
		return
	}

	// Mid-cycle with finish_sequence: commit the swap but let the
	// current cycle run to its boundary.
	if active != "" && m.Rule.FinishSequence && r.Automation.StepIndex != 0 {
		r.Automation.PendingSequenceID = newID
		r.Automation.SuspendedUntilLoop = true
		e.journalFire(e.macroLog, e.lastMacroFire, r, string(rules.Macro), rulesetID, node, m, true)
		e.log.Info("sequence swap deferred",
			"runner", r.ID,
			"from", active,
			"to", newID,
		)
		return
	}

	e.startSequence(r, newID)
	e.journalFire(e.macroLog, e.lastMacroFire, r, string(rules.Macro), rulesetID, node, m, false)
}

// applyMacroAction handles the non-assign macro actions. These are the
// emergency overrides: they abandon the active sequence and act on the
// runner directly.
func (e *Engine) applyMacroAction(r *sim.Runner, a rules.Action) error {
	switch a.Kind {
	case rules.ActIdle:
		e.terminateSequence(r)
		r.Automation.PendingSequenceID = ""
		r.Automation.SuspendedUntilLoop = false
		return nil
	case rules.ActReturnToHub:
		e.terminateSequence(r)
		r.Automation.PendingSequenceID = ""
		r.Automation.SuspendedUntilLoop = false
		return e.travelToHub(r, false)
	case rules.ActFleeToHub:
		e.terminateSequence(r)
		r.Automation.PendingSequenceID = ""
		r.Automation.SuspendedUntilLoop = false
		return e.travelToHub(r, true)
	case rules.ActWorkAt:
		return e.world.SetDestination(r, a.Node)
	case rules.ActGatherHere, rules.ActFinishTask:
		return fmt.Errorf("%s is micro-only", a.Kind)
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}
