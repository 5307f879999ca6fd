package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

func addMacroRuleset(t *testing.T, e *Engine, id string, rs ...rules.Rule) {
	t.Helper()
	_, err := e.Library().CreateRuleset(id, id, rules.Macro)
	require.NoError(t, err)
	for _, r := range rs {
		require.NoError(t, e.Library().AddRule(id, r))
	}
}

func TestDeferredSwapLandsAtLoopBoundary(t *testing.T) {
	e, r := testEngine(t)
	addMacroRuleset(t, e, "switchB", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqB"},
		rules.Always(),
	))
	require.NoError(t, e.AssignMacroRuleset("r1", "switchB"))

	// Mid-cycle: step 1 (the work step) of seqA.
	r.Automation.SequenceID = "seqA"
	r.Automation.StepIndex = 1
	r.NodeID = "mine"

	e.evaluateMacro(r)
	assert.Equal(t, "seqA", r.Automation.SequenceID, "active sequence unchanged until the boundary")
	assert.Equal(t, "seqB", r.Automation.PendingSequenceID)
	assert.True(t, r.Automation.SuspendedUntilLoop)

	latest, ok := e.MacroJournal().Last()
	require.True(t, ok)
	assert.True(t, latest.Deferred)
	assert.Equal(t, "assign_sequence(seqB)", latest.ActionDetail)

	// While suspended the macro rules do not run at all.
	n := e.MacroJournal().Len()
	e.evaluateMacro(r)
	assert.Equal(t, "seqA", r.Automation.SequenceID)
	assert.Equal(t, n, e.MacroJournal().Len())

	// Finish the cycle: the deposit step ends back at the hub, and
	// completing it crosses the boundary where the pending sequence
	// takes over at step zero.
	r.NodeID = "hub"
	r.Automation.StepIndex = len(mustSequence(t, e, "seqA").Steps) - 1
	e.completeStep(r)
	assert.Equal(t, "seqB", r.Automation.SequenceID)
	assert.Empty(t, r.Automation.PendingSequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)
	assert.Equal(t, 0, r.Automation.StepIndex)
	assert.Equal(t, sim.StateTraveling, r.State, "seqB's first travel step began")
}

func TestImmediateOverrideSwapsWithinPass(t *testing.T) {
	e, r := testEngine(t)
	override := rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqB"},
		rules.Always(),
	)
	override.FinishSequence = false
	addMacroRuleset(t, e, "forceB", override)
	require.NoError(t, e.AssignMacroRuleset("r1", "forceB"))

	r.Automation.SequenceID = "seqA"
	r.Automation.StepIndex = 1
	r.NodeID = "mine"
	r.State = sim.StateGathering

	e.evaluateMacro(r)
	assert.Equal(t, "seqB", r.Automation.SequenceID)
	assert.Empty(t, r.Automation.PendingSequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)

	latest, ok := e.MacroJournal().Last()
	require.True(t, ok)
	assert.False(t, latest.Deferred)
}

func TestSwapAtStepZeroIsImmediate(t *testing.T) {
	e, r := testEngine(t)
	addMacroRuleset(t, e, "switchB", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqB"},
		rules.Always(),
	))
	require.NoError(t, e.AssignMacroRuleset("r1", "switchB"))

	// Step zero is the loop boundary; nothing to finish first.
	r.Automation.SequenceID = "seqA"
	r.Automation.StepIndex = 0

	e.evaluateMacro(r)
	assert.Equal(t, "seqB", r.Automation.SequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)
}

func TestResumeCancelsDeferredSwap(t *testing.T) {
	e, r := testEngine(t)
	addMacroRuleset(t, e, "switchB", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqB"},
		rules.Always(),
	))
	require.NoError(t, e.AssignMacroRuleset("r1", "switchB"))

	r.Automation.SequenceID = "seqA"
	r.Automation.StepIndex = 2
	r.NodeID = "mine"
	e.evaluateMacro(r)
	require.True(t, r.Automation.SuspendedUntilLoop)

	require.NoError(t, e.ResumeMacroRules("r1"))
	assert.Empty(t, r.Automation.PendingSequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)

	// The rules run again from live state and, still mid-cycle, commit
	// the same swap afresh.
	e.evaluateMacro(r)
	assert.Equal(t, "seqB", r.Automation.PendingSequenceID)
	assert.True(t, r.Automation.SuspendedUntilLoop)
}

func TestReassignedRulesetJournalsItsFirstDecision(t *testing.T) {
	e, r := testEngine(t)
	for _, id := range []string{"dayShift", "nightShift"} {
		addMacroRuleset(t, e, id, rules.NewRule(
			rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqA"},
			rules.Always(),
		))
	}
	require.NoError(t, e.AssignMacroRuleset("r1", "dayShift"))

	e.evaluateMacro(r)
	e.evaluateMacro(r)
	require.Equal(t, 1, e.MacroJournal().Len(), "idempotent re-fire logs once")

	// Same rule index, same action, but a different ruleset now governs
	// the runner: its first decision must appear in the journal rather
	// than be deduped against the old ruleset's.
	require.NoError(t, e.AssignMacroRuleset("r1", "nightShift"))
	e.evaluateMacro(r)
	assert.Equal(t, 2, e.MacroJournal().Len())

	latest, ok := e.MacroJournal().Last()
	require.True(t, ok)
	assert.Equal(t, "assign_sequence(seqA)", latest.ActionDetail)
}

func TestMacroFleeAbandonsSequence(t *testing.T) {
	e, r := testEngine(t)
	addMacroRuleset(t, e, "panic",
		rules.NewRule(
			rules.Action{Kind: rules.ActFleeToHub},
			rules.Condition{Kind: rules.CondSelfHP, Op: rules.LT, Value: 30},
		),
		rules.NewRule(rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqA"}, rules.Always()),
	)
	require.NoError(t, e.AssignMacroRuleset("r1", "panic"))

	r.Automation.SequenceID = "seqA"
	r.Automation.StepIndex = 1
	r.NodeID = "mine"
	r.State = sim.StateGathering
	r.HP = 10

	e.evaluateMacro(r)
	assert.Empty(t, r.Automation.SequenceID, "emergency action abandons the sequence")
	assert.Equal(t, sim.StateTraveling, r.State)
	assert.Equal(t, "hub", r.DestNodeID)

	latest, ok := e.MacroJournal().Last()
	require.True(t, ok)
	assert.Equal(t, "flee_to_hub", latest.ActionDetail)
	assert.Equal(t, 0, latest.RuleIndex, "the flee rule outranks the assignment rule")
}

func TestMacroStallWarnsAndJournalsOnce(t *testing.T) {
	e, r := testEngine(t)
	addMacroRuleset(t, e, "narrow", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqA"},
		rules.Condition{Kind: rules.CondBankContains, Item: "iron_ore", Op: rules.GTE, Value: 999},
	))
	require.NoError(t, e.AssignMacroRuleset("r1", "narrow"))

	e.evaluateMacro(r)
	assert.Contains(t, r.Automation.Warning, "no rule matched")

	latest, ok := e.MacroJournal().Last()
	require.True(t, ok)
	assert.Equal(t, stallRuleIndex, latest.RuleIndex)
	assert.Equal(t, "stalled", latest.ActionDetail)

	// Repeated stalling passes do not grow the journal.
	n := e.MacroJournal().Len()
	e.evaluateMacro(r)
	assert.Equal(t, n, e.MacroJournal().Len())

	// An edit to the shared ruleset heals the stall without any
	// reassignment: the next pass matches and the warning clears.
	e.World().Bank["iron_ore"] = 999
	e.evaluateMacro(r)
	assert.Empty(t, r.Automation.Warning)
	assert.Equal(t, "seqA", r.Automation.SequenceID)
}

func TestUnknownMacroRulesetWarnsAndHeals(t *testing.T) {
	e, r := testEngine(t)
	r.Automation.MacroRulesetID = "ghost"

	e.evaluateMacro(r)
	assert.Contains(t, r.Automation.Warning, `macro ruleset "ghost" not found`)

	addMacroRuleset(t, e, "ghost", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqA"},
		rules.Always(),
	))
	e.evaluateMacro(r)
	assert.Empty(t, r.Automation.Warning)
	assert.Equal(t, "seqA", r.Automation.SequenceID)
}
