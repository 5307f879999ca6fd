package engine

import (
	"fmt"

	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// Commands exposed at the authoring/UI boundary. Each is atomic,
// returns a failure result on well-formed bad input, and is immediately
// visible to the next evaluation pass. Library-only edits live on
// library.Library; the commands here are the ones that also touch
// runner state.

func (e *Engine) runner(id string) (*sim.Runner, error) {
	r := e.world.RunnerByID(id)
	if r == nil {
		return nil, fmt.Errorf("no such runner %q", id)
	}
	return r, nil
}

// AssignSequence assigns a task sequence to a runner, starting it at
// step zero immediately. This is the explicit player command, not the
// macro action; it never defers.
func (e *Engine) AssignSequence(runnerID, sequenceID string) error {
	r, err := e.runner(runnerID)
	if err != nil {
		return err
	}
	if _, ok := e.lib.Sequence(sequenceID); !ok {
		return fmt.Errorf("no such sequence %q", sequenceID)
	}
	e.startSequence(r, sequenceID)
	e.markDirty(runnerID, true, true)
	return nil
}

// ClearSequence detaches the runner from its sequence and any pending
// swap, returning it to idle.
func (e *Engine) ClearSequence(runnerID string) error {
	r, err := e.runner(runnerID)
	if err != nil {
		return err
	}
	e.terminateSequence(r)
	r.Automation.PendingSequenceID = ""
	r.Automation.SuspendedUntilLoop = false
	e.markDirty(runnerID, true, true)
	return nil
}

// AssignMacroRuleset points the runner at a macro ruleset; an empty id
// detaches it.
func (e *Engine) AssignMacroRuleset(runnerID, rulesetID string) error {
	r, err := e.runner(runnerID)
	if err != nil {
		return err
	}
	if rulesetID != "" {
		rs, ok := e.lib.Ruleset(rulesetID)
		if !ok {
			return fmt.Errorf("no such ruleset %q", rulesetID)
		}
		if rs.Category != rules.Macro {
			return fmt.Errorf("ruleset %q is not a macro ruleset", rulesetID)
		}
	}
	r.Automation.MacroRulesetID = rulesetID
	e.clearWarning(r, warnMacro)
	e.markDirty(runnerID, false, true)
	return nil
}

// ResumeMacroRules cancels an in-progress deferred swap: the suspension
// and the pending id are cleared without waiting for the loop boundary,
// and the macro rules re-evaluate from live state on the next pass.
func (e *Engine) ResumeMacroRules(runnerID string) error {
	r, err := e.runner(runnerID)
	if err != nil {
		return err
	}
	r.Automation.SuspendedUntilLoop = false
	r.Automation.PendingSequenceID = ""
	e.markDirty(runnerID, false, true)
	return nil
}

// DeleteRuleset removes a ruleset from the library and reassigns every
// runner referencing it to none, in the same command. A dangling id is
// never left behind silently. Work steps referencing a deleted micro
// ruleset surface as self-healing configuration warnings instead.
func (e *Engine) DeleteRuleset(id string) error {
	if err := e.lib.DeleteRuleset(id); err != nil {
		return err
	}
	for _, r := range e.world.Runners() {
		if r.Automation.MacroRulesetID == id {
			r.Automation.MacroRulesetID = ""
			e.markDirty(r.ID, false, true)
		}
	}
	return nil
}

// DeleteSequence removes a sequence from the library and detaches every
// runner referencing it, active or pending.
func (e *Engine) DeleteSequence(id string) error {
	if err := e.lib.DeleteSequence(id); err != nil {
		return err
	}
	for _, r := range e.world.Runners() {
		if r.Automation.SequenceID == id {
			r.Automation.SequenceID = ""
			r.Automation.StepIndex = 0
			r.StopWork()
			// Deleting the active sequence ends its cycle, which is the
			// boundary a committed deferred swap was waiting for: land
			// the pending sequence now instead of leaving the runner
			// suspended with nothing to finish.
			if pending := r.Automation.PendingSequenceID; pending != "" && pending != id {
				e.startSequence(r, pending)
			} else {
				r.Automation.PendingSequenceID = ""
				r.Automation.SuspendedUntilLoop = false
			}
			e.markDirty(r.ID, true, true)
		}
		if r.Automation.PendingSequenceID == id {
			r.Automation.PendingSequenceID = ""
			r.Automation.SuspendedUntilLoop = false
			e.markDirty(r.ID, false, true)
		}
	}
	return nil
}
