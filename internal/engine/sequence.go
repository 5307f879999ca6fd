package engine

import (
	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/sim"
)

// currentStep resolves the runner's active step, if any.
func (e *Engine) currentStep(r *sim.Runner) (library.TaskStep, bool) {
	if r.Automation.SequenceID == "" {
		return library.TaskStep{}, false
	}
	seq, ok := e.lib.Sequence(r.Automation.SequenceID)
	if !ok || r.Automation.StepIndex >= len(seq.Steps) {
		return library.TaskStep{}, false
	}
	return seq.Steps[r.Automation.StepIndex], true
}

// onArrival completes a travel_to step when the runner reaches its
// target. Step completion is driven by mechanical completion; the state
// machine only tracks which step is active.
func (e *Engine) onArrival(r *sim.Runner) {
	step, ok := e.currentStep(r)
	if ok && step.Kind == library.StepTravelTo && step.Node == r.NodeID {
		e.completeStep(r)
	}
}

// onDepositComplete completes a deposit step.
func (e *Engine) onDepositComplete(r *sim.Runner) {
	step, ok := e.currentStep(r)
	if ok && step.Kind == library.StepDeposit {
		e.completeStep(r)
	}
}

// completeStep advances past the current step and enters the next one.
func (e *Engine) completeStep(r *sim.Runner) {
	r.Automation.StepIndex++
	e.enterStep(r)
}

// enterStep makes the runner's current step active, applying its entry
// effect. The step index may sit past the end of the sequence, which is
// the cycle boundary: a pending deferred swap lands there; otherwise a
// looping sequence wraps to step zero and a non-looping one terminates.
//
// Already-satisfied travel steps advance inline, bounded by a guard so
// a looping sequence whose every step is instantly satisfied parks with
// a warning instead of spinning.
func (e *Engine) enterStep(r *sim.Runner) {
	for guard := 0; ; guard++ {
		seq, ok := e.lib.Sequence(r.Automation.SequenceID)
		if !ok {
			e.setWarning(r, warnSequence, "sequence %q not found", r.Automation.SequenceID)
			return
		}
		if len(seq.Steps) == 0 {
			e.setWarning(r, warnSequence, "sequence %q has no steps", seq.ID)
			return
		}
		if guard > 2*len(seq.Steps) {
			e.setWarning(r, warnSequence, "sequence %q makes no progress", seq.ID)
			return
		}

		if r.Automation.StepIndex >= len(seq.Steps) {
			if pending := r.Automation.PendingSequenceID; pending != "" {
				e.startSequence(r, pending)
				return
			}
			r.Automation.SuspendedUntilLoop = false
			if !seq.Loop {
				e.terminateSequence(r)
				return
			}
			r.Automation.StepIndex = 0
			continue
		}

		step := seq.Steps[r.Automation.StepIndex]
		switch step.Kind {
		case library.StepTravelTo:
			if r.NodeID == step.Node && r.State != sim.StateTraveling {
				r.Automation.StepIndex++
				continue
			}
			if err := e.world.SetDestination(r, step.Node); err != nil {
				e.setWarning(r, warnSequence, "step %d: %v", r.Automation.StepIndex, err)
				return
			}
		case library.StepWork:
			// The micro ruleset decides in-step behavior; schedule it.
			e.dirtyMicro[r.ID] = true
		case library.StepDeposit:
			if err := e.world.BeginDeposit(r); err != nil {
				e.setWarning(r, warnSequence, "step %d: %v", r.Automation.StepIndex, err)
				return
			}
		}
		e.clearWarning(r, warnSequence)
		e.log.Debug("step entered",
			"runner", r.ID,
			"sequence", seq.ID,
			"step", r.Automation.StepIndex,
			"kind", string(step.Kind),
		)
		return
	}
}

// startSequence activates a sequence at step zero, clearing any pending
// swap and macro suspension. The interrupt request is issued to the
// simulation, which owns whether the in-flight operation yields.
func (e *Engine) startSequence(r *sim.Runner, id string) {
	if _, ok := e.lib.Sequence(id); !ok {
		e.setWarning(r, warnSequence, "sequence %q not found", id)
		r.Automation.PendingSequenceID = ""
		r.Automation.SuspendedUntilLoop = false
		return
	}
	r.Interrupt()
	r.Automation.SequenceID = id
	r.Automation.StepIndex = 0
	r.Automation.PendingSequenceID = ""
	r.Automation.SuspendedUntilLoop = false
	e.clearWarning(r, warnSequence)
	e.enterStep(r)
}

// terminateSequence returns the runner to idle with no sequence.
func (e *Engine) terminateSequence(r *sim.Runner) {
	r.Automation.SequenceID = ""
	r.Automation.StepIndex = 0
	r.StopWork()
	e.clearWarning(r, warnSequence)
	e.log.Debug("sequence terminated", "runner", r.ID)
}
