package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// Test fixture: a hub, one mine three ticks away, and a mining loop
// (travel out, gather until full, travel back, deposit).

func testWorld() *sim.World {
	w := sim.NewWorld()
	w.AddNode(&sim.Node{ID: "hub", Name: "Hub", Hub: true, Travel: map[string]int{"mine": 3}})
	w.AddNode(&sim.Node{
		ID:   "mine",
		Name: "East Mine",
		Gatherables: []sim.Gatherable{
			{Item: "iron_ore", Ticks: 2, Skill: sim.SkillMining, XP: 10},
		},
		Travel: map[string]int{"hub": 3},
	})
	return w
}

func testRunner(w *sim.World, id string) *sim.Runner {
	r := &sim.Runner{
		ID:        id,
		Name:      id,
		NodeID:    "hub",
		Inventory: sim.Inventory{Capacity: 2},
		HP:        100,
		MaxHP:     100,
	}
	w.AddRunner(r)
	return r
}

func miningSteps(t *testing.T, l *library.Library, seqID string) {
	t.Helper()
	require.NoError(t, l.AddStep(seqID, library.TaskStep{Kind: library.StepTravelTo, Node: "mine"}))
	require.NoError(t, l.AddStep(seqID, library.TaskStep{Kind: library.StepWork, Ruleset: "gathering"}))
	require.NoError(t, l.AddStep(seqID, library.TaskStep{Kind: library.StepTravelTo, Node: "hub"}))
	require.NoError(t, l.AddStep(seqID, library.TaskStep{Kind: library.StepDeposit}))
}

func testLibrary(t *testing.T) *library.Library {
	t.Helper()
	l := library.New()

	_, err := l.CreateRuleset("gathering", "Gathering", rules.Micro)
	require.NoError(t, err)
	require.NoError(t, l.AddRule("gathering", rules.NewRule(
		rules.Action{Kind: rules.ActFinishTask},
		rules.Condition{Kind: rules.CondInventoryFull},
	)))
	require.NoError(t, l.AddRule("gathering", rules.NewRule(
		rules.Action{Kind: rules.ActGatherHere, Gatherable: 0},
		rules.Condition{Kind: rules.CondAtNode, Item: "mine"},
	)))
	require.NoError(t, l.AddRule("gathering", rules.NewRule(rules.Action{Kind: rules.ActIdle}, rules.Always())))

	for _, seqID := range []string{"seqA", "seqB"} {
		_, err := l.CreateSequence(seqID, "Mining run "+seqID, true)
		require.NoError(t, err)
		miningSteps(t, l, seqID)
	}

	_, err = l.CreateRuleset("overseer", "Overseer", rules.Macro)
	require.NoError(t, err)
	require.NoError(t, l.AddRule("overseer", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqB"},
		rules.Condition{Kind: rules.CondBankContains, Item: "iron_ore", Op: rules.GTE, Value: 4},
	)))
	require.NoError(t, l.AddRule("overseer", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqA"},
		rules.Always(),
	)))

	return l
}

func mustSequence(t *testing.T, e *Engine, id string) *library.TaskSequence {
	t.Helper()
	seq, ok := e.Library().Sequence(id)
	require.True(t, ok, "sequence %q", id)
	return seq
}

func testEngine(t *testing.T, opts ...Option) (*Engine, *sim.Runner) {
	t.Helper()
	w := testWorld()
	r := testRunner(w, "r1")
	e := New(w, testLibrary(t), opts...)
	return e, r
}

func TestEngineMiningLoopEndToEnd(t *testing.T) {
	e, r := testEngine(t)
	require.NoError(t, e.AssignMacroRuleset("r1", "overseer"))

	// Cycle: 3 out + 2x2 gather + 3 back + 3 deposit = 13 ticks plus
	// evaluation latency; 30 ticks covers two full trips.
	e.Run(30)

	assert.Equal(t, 4, e.World().Bank["iron_ore"], "two trips of a capacity-2 inventory")
	assert.Empty(t, r.Automation.Warning)

	// The bank threshold (>= 4) opened after the second deposit; the
	// macro layer must have switched the runner to seqB.
	assert.Equal(t, "seqB", r.Automation.SequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)

	macro := e.MacroJournal().All()
	require.NotEmpty(t, macro)
	first := macro[len(macro)-1]
	assert.Equal(t, "assign_sequence(seqA)", first.ActionDetail, "oldest macro decision starts seqA")
	assert.Equal(t, "always", first.Snapshot)
	latest := macro[0]
	assert.Equal(t, "assign_sequence(seqB)", latest.ActionDetail)
	assert.Equal(t, "bank(iron_ore)=4 >= 4", latest.Snapshot, "snapshot embeds the live bank count")

	micro := e.MicroJournal().All()
	require.NotEmpty(t, micro)
	var details []string
	for i := len(micro) - 1; i >= 0; i-- {
		details = append(details, micro[i].ActionDetail)
	}
	assert.Equal(t, "gather_here(0)", details[0])
	assert.Contains(t, details, "finish_task")
}

func TestIdempotentDecisionLoggedOnce(t *testing.T) {
	e, _ := testEngine(t)
	require.NoError(t, e.AssignMacroRuleset("r1", "overseer"))

	// The Always -> seqA rule re-fires on every macro pass while the
	// bank stays below threshold; the journal must not grow per pass.
	e.Run(12)

	var assigns int
	for _, entry := range e.MacroJournal().All() {
		if entry.ActionDetail == "assign_sequence(seqA)" {
			assigns++
		}
	}
	assert.Equal(t, 1, assigns)
}

func TestSafetyNetEvaluatesQuietRunners(t *testing.T) {
	e, r := testEngine(t, WithSafetyNetInterval(5))

	// No macro ruleset, no sequence: the runner produces no events at
	// all, so only the safety net ever schedules it.
	e.Run(1)
	require.Equal(t, int64(1), e.lastMicroEval[r.ID], "never-evaluated runner is picked up immediately")

	e.Run(4) // ticks 2..5: within the interval, nothing re-evaluates
	assert.Equal(t, int64(1), e.lastMicroEval[r.ID])

	e.Run(1) // tick 6: interval elapsed
	assert.Equal(t, int64(6), e.lastMicroEval[r.ID])
	assert.Equal(t, int64(6), e.lastMacroEval[r.ID])
}

func TestJournalGenerationBumps(t *testing.T) {
	e, _ := testEngine(t)
	require.NoError(t, e.AssignMacroRuleset("r1", "overseer"))

	before := e.MacroJournal().Generation()
	e.Run(1)
	assert.Greater(t, e.MacroJournal().Generation(), before)
}

func TestDeleteRulesetClearsRunnerReferences(t *testing.T) {
	e, r := testEngine(t)
	require.NoError(t, e.AssignMacroRuleset("r1", "overseer"))

	require.NoError(t, e.DeleteRuleset("overseer"))
	assert.Empty(t, r.Automation.MacroRulesetID, "deletion reassigns referents to none, never dangles")

	_, ok := e.Library().Ruleset("overseer")
	assert.False(t, ok)
}

func TestDeleteSequenceClearsActiveAndPending(t *testing.T) {
	e, r := testEngine(t)
	require.NoError(t, e.AssignSequence("r1", "seqA"))
	r.Automation.PendingSequenceID = "seqB"
	r.Automation.SuspendedUntilLoop = true

	require.NoError(t, e.DeleteSequence("seqB"))
	assert.Empty(t, r.Automation.PendingSequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)
	assert.Equal(t, "seqA", r.Automation.SequenceID)

	require.NoError(t, e.DeleteSequence("seqA"))
	assert.Empty(t, r.Automation.SequenceID)
	assert.Equal(t, 0, r.Automation.StepIndex)
}

func TestDeleteActiveSequenceLandsPendingSwap(t *testing.T) {
	e, r := testEngine(t)
	addMacroRuleset(t, e, "switchB", rules.NewRule(
		rules.Action{Kind: rules.ActAssignSequence, Sequence: "seqB"},
		rules.Always(),
	))
	require.NoError(t, e.AssignMacroRuleset("r1", "switchB"))

	// Mid-cycle on seqA's work step, so the swap to seqB defers.
	r.Automation.SequenceID = "seqA"
	r.Automation.StepIndex = 1
	r.NodeID = "mine"
	e.evaluateMacro(r)
	require.Equal(t, "seqB", r.Automation.PendingSequenceID)
	require.True(t, r.Automation.SuspendedUntilLoop)

	// Deleting the active sequence ends its cycle, which is the
	// boundary the committed swap was waiting for: seqB must take over
	// instead of the runner staying suspended with nothing to finish.
	require.NoError(t, e.DeleteSequence("seqA"))
	assert.Equal(t, "seqB", r.Automation.SequenceID)
	assert.Empty(t, r.Automation.PendingSequenceID)
	assert.False(t, r.Automation.SuspendedUntilLoop)
	assert.Empty(t, r.Automation.Warning)

	// The runner is already at the mine, so seqB's satisfied travel
	// step advanced inline; the next micro pass puts it to work.
	assert.Equal(t, 1, r.Automation.StepIndex)
	e.Run(1)
	assert.Equal(t, sim.StateGathering, r.State)
}

func TestCommandsRejectUnknownIDs(t *testing.T) {
	e, _ := testEngine(t)

	assert.Error(t, e.AssignSequence("ghost", "seqA"))
	assert.Error(t, e.AssignSequence("r1", "ghost"))
	assert.Error(t, e.AssignMacroRuleset("r1", "ghost"))
	assert.Error(t, e.AssignMacroRuleset("r1", "gathering"), "micro ruleset cannot drive the macro layer")
	assert.Error(t, e.ResumeMacroRules("ghost"))
}

func TestExplicitAssignSequenceStartsImmediately(t *testing.T) {
	e, r := testEngine(t)

	require.NoError(t, e.AssignSequence("r1", "seqA"))
	assert.Equal(t, "seqA", r.Automation.SequenceID)
	assert.Equal(t, 0, r.Automation.StepIndex)
	assert.Equal(t, sim.StateTraveling, r.State, "step zero's travel began within the command")

	require.NoError(t, e.ClearSequence("r1"))
	assert.Empty(t, r.Automation.SequenceID)
}
