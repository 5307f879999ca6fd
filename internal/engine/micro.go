package engine

import (
	"fmt"

	"github.com/emberfall/overseer/internal/journal"
	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// stallRuleIndex marks journal entries recorded for a pass where no
// rule matched.
const stallRuleIndex = -1

// evaluateMicro runs the micro layer for one runner. Micro is active
// only while a work step is current; it selects in-step behavior or
// signals step completion.
func (e *Engine) evaluateMicro(r *sim.Runner) {
	e.lastMicroEval[r.ID] = e.world.Tick

	step, ok := e.currentStep(r)
	if !ok || step.Kind != library.StepWork {
		e.clearWarning(r, warnMicro)
		// Leaving the work step resets decision dedupe so the next work
		// step journals afresh.
		delete(e.lastMicroFire, r.ID)
		return
	}

	rs, ok := e.lib.Ruleset(step.Ruleset)
	if !ok {
		e.setWarning(r, warnMicro, "work step references unknown ruleset %q", step.Ruleset)
		return
	}
	if rs.Category != rules.Micro {
		e.setWarning(r, warnMicro, "ruleset %q is not a micro ruleset", rs.ID)
		return
	}

	view := runnerView{w: e.world, r: r}
	m, matched := rs.Evaluate(view)
	if !matched {
		e.setWarning(r, warnMicro, "no rule matched in ruleset %q", rs.ID)
		e.journalStall(e.microLog, e.lastMicroFire, r, string(rules.Micro), rs.ID)
		return
	}
	e.clearWarning(r, warnMicro)

	node := r.NodeID
	if err := e.applyMicroAction(r, m.Rule.Action); err != nil {
		e.setWarning(r, warnMicro, "%v", err)
		return
	}
	e.journalFire(e.microLog, e.lastMicroFire, r, string(rules.Micro), rs.ID, node, m, false)
}

// applyMicroAction applies a micro decision immediately, within the
// evaluation call that matched it.
func (e *Engine) applyMicroAction(r *sim.Runner, a rules.Action) error {
	switch a.Kind {
	case rules.ActIdle:
		r.StopWork()
		return nil
	case rules.ActGatherHere:
		return e.world.BeginGather(r, a.Gatherable)
	case rules.ActWorkAt:
		return e.world.SetDestination(r, a.Node)
	case rules.ActReturnToHub:
		return e.travelToHub(r, false)
	case rules.ActFleeToHub:
		return e.travelToHub(r, true)
	case rules.ActFinishTask:
		e.completeStep(r)
		return nil
	case rules.ActAssignSequence:
		return fmt.Errorf("assign_sequence is macro-only")
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

func (e *Engine) travelToHub(r *sim.Runner, interrupt bool) error {
	hub := e.world.Hub()
	if hub == nil {
		return fmt.Errorf("world has no hub node")
	}
	if interrupt {
		r.Interrupt()
	}
	return e.world.SetDestination(r, hub.ID)
}

// journalFire appends a firing decision. An unchanged consecutive
// decision for the same runner (idempotent action re-fired on a later
// pass) is logged once, keeping the audit trail consistent with what
// actually executed. The ruleset id is part of the fingerprint so the
// first decision under a newly assigned ruleset always journals, even
// when its rule index and action happen to match the old one's.
func (e *Engine) journalFire(j *journal.Journal, fires map[string]string, r *sim.Runner, layer, rulesetID, node string, m rules.Match, deferred bool) {
	fp := fmt.Sprintf("%s|%d|%s|%t", rulesetID, m.Index, m.Rule.Action.Detail(), deferred)
	if fires[r.ID] == fp {
		return
	}
	fires[r.ID] = fp

	detail := m.Rule.Action.Detail()
	j.Append(journal.Entry{
		Tick:         e.world.Tick,
		GameTime:     e.world.GameTime(),
		RunnerID:     r.ID,
		RunnerName:   r.Name,
		Layer:        layer,
		NodeID:       node,
		RuleIndex:    m.Index,
		RuleLabel:    m.Rule.Label,
		Snapshot:     m.Snapshot,
		ActionDetail: detail,
		Deferred:     deferred,
	})
	e.log.Debug("rule fired",
		"layer", layer,
		"runner", r.ID,
		"rule", m.Index,
		"action", detail,
		"deferred", deferred,
	)
}

// journalStall records that a pass matched nothing, once per stall.
func (e *Engine) journalStall(j *journal.Journal, fires map[string]string, r *sim.Runner, layer, rulesetID string) {
	fp := "stall|" + rulesetID
	if fires[r.ID] == fp {
		return
	}
	fires[r.ID] = fp

	j.Append(journal.Entry{
		Tick:         e.world.Tick,
		GameTime:     e.world.GameTime(),
		RunnerID:     r.ID,
		RunnerName:   r.Name,
		Layer:        layer,
		NodeID:       r.NodeID,
		RuleIndex:    stallRuleIndex,
		Snapshot:     fmt.Sprintf("no rule matched in %s", rulesetID),
		ActionDetail: "stalled",
	})
}
