package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRuleset() *rules.Ruleset {
	return &rules.Ruleset{
		ID:       "gathering",
		Name:     "Gathering",
		Category: rules.Micro,
		Rules: []rules.Rule{
			rules.NewRule(rules.Action{Kind: rules.ActFinishTask},
				rules.Condition{Kind: rules.CondInventoryFull}),
			rules.NewRule(rules.Action{Kind: rules.ActGatherHere, Gatherable: 1},
				rules.Condition{Kind: rules.CondAtNode, Item: "mine"}),
			rules.NewRule(rules.Action{Kind: rules.ActIdle}, rules.Always()),
		},
	}
}

func testSequence() *library.TaskSequence {
	return &library.TaskSequence{
		ID:   "mining_run",
		Name: "Mining run",
		Loop: true,
		Steps: []library.TaskStep{
			{Kind: library.StepTravelTo, Node: "mine"},
			{Kind: library.StepWork, Ruleset: "gathering"},
			{Kind: library.StepTravelTo, Node: "hub"},
			{Kind: library.StepDeposit},
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveRuleset(context.Background(), testRuleset()))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	lib, err := s2.LoadLibrary(context.Background())
	require.NoError(t, err)
	_, ok := lib.Ruleset("gathering")
	assert.True(t, ok, "entities survive reopen")
}

func TestRulesetRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orig := testRuleset()
	require.NoError(t, s.SaveRuleset(ctx, orig))

	lib, err := s.LoadLibrary(ctx)
	require.NoError(t, err)

	got, ok := lib.Ruleset("gathering")
	require.True(t, ok)
	assert.Equal(t, orig.Name, got.Name)
	assert.Equal(t, rules.Micro, got.Category)
	require.Len(t, got.Rules, 3)
	assert.Equal(t, orig.Rules[1].Action, got.Rules[1].Action)
	assert.Equal(t, orig.Rules[1].Conditions, got.Rules[1].Conditions)
	assert.True(t, got.Rules[0].FinishSequence, "defaulted fields persist explicitly")
}

func TestSequenceRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orig := testSequence()
	require.NoError(t, s.SaveSequence(ctx, orig))

	lib, err := s.LoadLibrary(ctx)
	require.NoError(t, err)

	got, ok := lib.Sequence("mining_run")
	require.True(t, ok)
	assert.True(t, got.Loop)
	assert.Equal(t, orig.Steps, got.Steps)
}

func TestSaveIsUpsert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rs := testRuleset()
	require.NoError(t, s.SaveRuleset(ctx, rs))

	rs.Name = "Gathering v2"
	rs.Rules = rs.Rules[:1]
	require.NoError(t, s.SaveRuleset(ctx, rs))

	lib, err := s.LoadLibrary(ctx)
	require.NoError(t, err)
	got, ok := lib.Ruleset("gathering")
	require.True(t, ok)
	assert.Equal(t, "Gathering v2", got.Name)
	assert.Len(t, got.Rules, 1)
}

func TestContentHashStableAcrossSaves(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRuleset(ctx, testRuleset()))
	first, err := s.RulesetHash(ctx, "gathering")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Saving a structurally identical entity must not move the hash.
	require.NoError(t, s.SaveRuleset(ctx, testRuleset()))
	second, err := s.RulesetHash(ctx, "gathering")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	edited := testRuleset()
	edited.Rules[0].Enabled = false
	require.NoError(t, s.SaveRuleset(ctx, edited))
	third, err := s.RulesetHash(ctx, "gathering")
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestRulesetHashMissingRow(t *testing.T) {
	s := createTestStore(t)
	hash, err := s.RulesetHash(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestSaveLibraryReplacesWholesale(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRuleset(ctx, testRuleset()))
	require.NoError(t, s.SaveSequence(ctx, testSequence()))

	// A library without the sequence: the stale row must disappear.
	lib := library.New()
	require.NoError(t, lib.PutRuleset(testRuleset()))
	require.NoError(t, s.SaveLibrary(ctx, lib))

	loaded, err := s.LoadLibrary(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.RulesetIDs(), 1)
	assert.Empty(t, loaded.SequenceIDs())
}

func TestDeleteRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRuleset(ctx, testRuleset()))
	require.NoError(t, s.SaveSequence(ctx, testSequence()))
	require.NoError(t, s.DeleteRuleset(ctx, "gathering"))
	require.NoError(t, s.DeleteSequence(ctx, "mining_run"))
	require.NoError(t, s.DeleteRuleset(ctx, "gathering"), "double delete is a no-op")

	lib, err := s.LoadLibrary(ctx)
	require.NoError(t, err)
	assert.Empty(t, lib.RulesetIDs())
	assert.Empty(t, lib.SequenceIDs())
}

func TestAutomationRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := sim.Automation{
		SequenceID:         "mining_run",
		StepIndex:          2,
		MacroRulesetID:     "overseer",
		PendingSequenceID:  "coal_run",
		SuspendedUntilLoop: true,
		Warning:            "micro: no rule matched",
	}
	require.NoError(t, s.SaveAutomation(ctx, "r1", a))
	require.NoError(t, s.SaveAutomation(ctx, "r2", sim.Automation{}))

	got, err := s.LoadAutomation(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got["r1"])
	assert.Equal(t, sim.Automation{}, got["r2"])

	// Upsert replaces the prior row.
	a.StepIndex = 0
	a.SuspendedUntilLoop = false
	a.PendingSequenceID = ""
	require.NoError(t, s.SaveAutomation(ctx, "r1", a))
	got, err = s.LoadAutomation(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, got["r1"])
}
