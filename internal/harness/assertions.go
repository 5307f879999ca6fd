package harness

import (
	"strings"

	"github.com/emberfall/overseer/internal/engine"
	"github.com/emberfall/overseer/internal/journal"
	"github.com/emberfall/overseer/internal/sim"
)

var stateNames = map[string]sim.RunnerState{
	"idle":       sim.StateIdle,
	"traveling":  sim.StateTraveling,
	"gathering":  sim.StateGathering,
	"depositing": sim.StateDepositing,
}

// assertOutcome evaluates one assertion against the finished engine,
// recording failures on the result.
func assertOutcome(result *Result, e *engine.Engine, index int, a Assertion) {
	switch a.Type {
	case AssertRunnerState:
		assertRunnerState(result, e, index, a)
	case AssertBankContains:
		assertBankContains(result, e, index, a)
	case AssertJournalContains:
		assertJournalContains(result, e, index, a)
	case AssertWarning:
		assertWarning(result, e, index, a)
	}
}

func assertRunnerState(result *Result, e *engine.Engine, index int, a Assertion) {
	r := e.World().RunnerByID(a.Runner)
	if r == nil {
		result.addError("assertion %d: no such runner %q", index, a.Runner)
		return
	}
	if a.Sequence != nil && r.Automation.SequenceID != *a.Sequence {
		result.addError("assertion %d: runner %s sequence = %q, want %q",
			index, a.Runner, r.Automation.SequenceID, *a.Sequence)
	}
	if a.Step != nil && r.Automation.StepIndex != *a.Step {
		result.addError("assertion %d: runner %s step = %d, want %d",
			index, a.Runner, r.Automation.StepIndex, *a.Step)
	}
	if a.State != "" {
		want, ok := stateNames[a.State]
		if !ok {
			result.addError("assertion %d: unknown state %q", index, a.State)
			return
		}
		if r.State != want {
			result.addError("assertion %d: runner %s state = %s, want %s",
				index, a.Runner, r.State, a.State)
		}
	}
	if a.Node != "" && r.NodeID != a.Node {
		result.addError("assertion %d: runner %s at %q, want %q",
			index, a.Runner, r.NodeID, a.Node)
	}
}

func assertBankContains(result *Result, e *engine.Engine, index int, a Assertion) {
	got := e.World().Bank[a.Item]
	if a.Count != nil && got != *a.Count {
		result.addError("assertion %d: bank(%s) = %d, want %d", index, a.Item, got, *a.Count)
	}
	if a.AtLeast != nil && got < *a.AtLeast {
		result.addError("assertion %d: bank(%s) = %d, want at least %d", index, a.Item, got, *a.AtLeast)
	}
	if a.Count == nil && a.AtLeast == nil && got == 0 {
		result.addError("assertion %d: bank(%s) is empty", index, a.Item)
	}
}

func assertJournalContains(result *Result, e *engine.Engine, index int, a Assertion) {
	var entries []journal.Entry
	if a.Layer == "macro" {
		entries = e.MacroJournal().All()
	} else {
		entries = e.MicroJournal().All()
	}
	for _, entry := range entries {
		if a.Runner != "" && entry.RunnerID != a.Runner {
			continue
		}
		if a.Action != "" && entry.ActionDetail != a.Action {
			continue
		}
		return
	}
	result.addError("assertion %d: no %s journal entry for runner %q with action %q",
		index, a.Layer, a.Runner, a.Action)
}

func assertWarning(result *Result, e *engine.Engine, index int, a Assertion) {
	r := e.World().RunnerByID(a.Runner)
	if r == nil {
		result.addError("assertion %d: no such runner %q", index, a.Runner)
		return
	}
	if a.Absent {
		if r.Automation.Warning != "" {
			result.addError("assertion %d: runner %s has warning %q, want none",
				index, a.Runner, r.Automation.Warning)
		}
		return
	}
	if !strings.Contains(r.Automation.Warning, a.Contains) {
		result.addError("assertion %d: runner %s warning %q does not contain %q",
			index, a.Runner, r.Automation.Warning, a.Contains)
	}
}
