package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSequenceAndSteps(t *testing.T) {
	l := New()

	id, err := l.CreateSequence("mining_run", "Mining run", true)
	require.NoError(t, err)
	assert.Equal(t, "mining_run", id)

	require.NoError(t, l.AddStep(id, TaskStep{Kind: StepTravelTo, Node: "mine"}))
	require.NoError(t, l.AddStep(id, TaskStep{Kind: StepWork, Ruleset: "gathering"}))
	require.NoError(t, l.AddStep(id, TaskStep{Kind: StepTravelTo, Node: "hub"}))
	require.NoError(t, l.AddStep(id, TaskStep{Kind: StepDeposit}))

	s, ok := l.Sequence(id)
	require.True(t, ok)
	assert.True(t, s.Loop)
	assert.Len(t, s.Steps, 4)
}

func TestAddStepRejections(t *testing.T) {
	l := New()
	_, err := l.CreateSequence("seq", "Seq", false)
	require.NoError(t, err)

	assertValidation(t, l.AddStep("seq", TaskStep{Kind: "teleport"}), ErrCodeUnknownKind)
	assertValidation(t, l.AddStep("seq", TaskStep{Kind: StepTravelTo}), ErrCodeEmptyField)
	assertValidation(t, l.AddStep("seq", TaskStep{Kind: StepWork}), ErrCodeEmptyField)
	assertValidation(t, l.AddStep("ghost", TaskStep{Kind: StepDeposit}), ErrCodeNotFound)

	s, _ := l.Sequence("seq")
	assert.Empty(t, s.Steps)
}

func TestSetStepTarget(t *testing.T) {
	l := New()
	_, err := l.CreateSequence("seq", "Seq", false)
	require.NoError(t, err)
	require.NoError(t, l.AddStep("seq", TaskStep{Kind: StepTravelTo, Node: "mine"}))
	require.NoError(t, l.AddStep("seq", TaskStep{Kind: StepWork, Ruleset: "old"}))
	require.NoError(t, l.AddStep("seq", TaskStep{Kind: StepDeposit}))

	require.NoError(t, l.SetStepTarget("seq", 0, "quarry"))
	require.NoError(t, l.SetStepTarget("seq", 1, "new_rules"))

	s, _ := l.Sequence("seq")
	assert.Equal(t, "quarry", s.Steps[0].Node)
	assert.Equal(t, "new_rules", s.Steps[1].Ruleset)

	assertValidation(t, l.SetStepTarget("seq", 2, "x"), ErrCodeWrongCategory)
	assertValidation(t, l.SetStepTarget("seq", 0, ""), ErrCodeEmptyField)
	assertValidation(t, l.SetStepTarget("seq", 9, "x"), ErrCodeBadIndex)
}

func TestRemoveStep(t *testing.T) {
	l := New()
	_, err := l.CreateSequence("seq", "Seq", false)
	require.NoError(t, err)
	require.NoError(t, l.AddStep("seq", TaskStep{Kind: StepTravelTo, Node: "mine"}))
	require.NoError(t, l.AddStep("seq", TaskStep{Kind: StepDeposit}))

	require.NoError(t, l.RemoveStep("seq", 0))
	s, _ := l.Sequence("seq")
	require.Len(t, s.Steps, 1)
	assert.Equal(t, StepDeposit, s.Steps[0].Kind)
}

func TestCloneSequenceIndependence(t *testing.T) {
	l := New()
	_, err := l.CreateSequence("seq", "Mining run", true)
	require.NoError(t, err)
	require.NoError(t, l.AddStep("seq", TaskStep{Kind: StepTravelTo, Node: "mine"}))

	cloneID, err := l.CloneSequence("seq")
	require.NoError(t, err)
	assert.NotEqual(t, "seq", cloneID)

	cl, ok := l.Sequence(cloneID)
	require.True(t, ok)
	assert.Equal(t, "Mining run (copy)", cl.Name)

	require.NoError(t, l.SetStepTarget(cloneID, 0, "quarry"))
	orig, _ := l.Sequence("seq")
	assert.Equal(t, "mine", orig.Steps[0].Node, "clone edits must not alias the original")
}

func TestRenameAndDeleteSequence(t *testing.T) {
	l := New()
	_, err := l.CreateSequence("seq", "Seq", false)
	require.NoError(t, err)

	require.NoError(t, l.RenameSequence("seq", "Better seq"))
	s, _ := l.Sequence("seq")
	assert.Equal(t, "Better seq", s.Name)

	require.NoError(t, l.DeleteSequence("seq"))
	_, ok := l.Sequence("seq")
	assert.False(t, ok)
	assertValidation(t, l.DeleteSequence("seq"), ErrCodeNotFound)
}
