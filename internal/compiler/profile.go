// Package compiler turns CUE automation profiles into library entities.
//
// A profile declares rulesets and task sequences:
//
//	ruleset: "gathering": {
//		category: "micro"
//		rules: [
//			{when: ["inventory_full"], then: "finish_task"},
//			{when: ["at(mine)"], then: "gather(0)"},
//			{then: "idle"},
//		]
//	}
//
//	sequence: "mining_run": {
//		loop: true
//		steps: [
//			{travel_to: "mine"},
//			{work: "gathering"},
//			{travel_to: "hub"},
//			{deposit: true},
//		]
//	}
//
// Compilation uses the CUE SDK's Go API directly, not a CLI subprocess.
package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
)

// Profile is a compiled automation profile, not yet cross-validated.
type Profile struct {
	Rulesets  []rules.Ruleset
	Sequences []library.TaskSequence
}

// CompileProfile compiles every ruleset and sequence declared in the
// CUE value. Fails fast on the first compile error; cross-reference
// checks are Validate's job so a profile with a dangling reference
// still compiles.
func CompileProfile(v cue.Value) (*Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Profile{}

	rulesetsVal := v.LookupPath(cue.ParsePath("ruleset"))
	if rulesetsVal.Exists() {
		iter, err := rulesetsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			rs, err := CompileRuleset(iter.Value())
			if err != nil {
				return nil, err
			}
			p.Rulesets = append(p.Rulesets, *rs)
		}
	}

	sequencesVal := v.LookupPath(cue.ParsePath("sequence"))
	if sequencesVal.Exists() {
		iter, err := sequencesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			seq, err := CompileSequence(iter.Value())
			if err != nil {
				return nil, err
			}
			p.Sequences = append(p.Sequences, *seq)
		}
	}

	if len(p.Rulesets) == 0 && len(p.Sequences) == 0 {
		return nil, &CompileError{
			Field:   "profile",
			Message: "no rulesets or sequences declared",
			Pos:     v.Pos(),
		}
	}
	return p, nil
}

// CompileRuleset parses a CUE value into a Ruleset. The value is the
// ruleset struct itself; its id comes from the struct label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`ruleset: "gathering": { ... }`)
//	rs, err := CompileRuleset(v.LookupPath(cue.ParsePath(`ruleset."gathering"`)))
func CompileRuleset(v cue.Value) (*rules.Ruleset, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rs := &rules.Ruleset{ID: labelOf(v)}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		rs.Name = name
	} else {
		rs.Name = rs.ID
	}

	catVal := v.LookupPath(cue.ParsePath("category"))
	if !catVal.Exists() {
		return nil, &CompileError{
			Field:   "category",
			Message: "category is required",
			Pos:     v.Pos(),
		}
	}
	cat, err := catVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	switch rules.Category(cat) {
	case rules.Macro, rules.Micro:
		rs.Category = rules.Category(cat)
	default:
		return nil, &CompileError{
			Field:   "category",
			Message: fmt.Sprintf("invalid category %q, must be \"macro\" or \"micro\"", cat),
			Pos:     catVal.Pos(),
		}
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if rulesVal.Exists() {
		iter, err := rulesVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			r, err := compileRule(iter.Value())
			if err != nil {
				return nil, err
			}
			rs.Rules = append(rs.Rules, *r)
		}
	}

	return rs, nil
}

// compileRule parses one rule entry. Priority is the list position;
// there is no priority field to get out of sync.
func compileRule(v cue.Value) (*rules.Rule, error) {
	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !thenVal.Exists() {
		return nil, &CompileError{
			Field:   "then",
			Message: "rule requires a then clause",
			Pos:     v.Pos(),
		}
	}
	thenStr, err := thenVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	action, err := parseAction(thenStr)
	if err != nil {
		return nil, &CompileError{Field: "then", Message: err.Error(), Pos: thenVal.Pos()}
	}

	var conds []rules.Condition
	whenVal := v.LookupPath(cue.ParsePath("when"))
	if whenVal.Exists() {
		iter, err := whenVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			condStr, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			cond, err := parseCondition(condStr)
			if err != nil {
				return nil, &CompileError{Field: "when", Message: err.Error(), Pos: iter.Value().Pos()}
			}
			conds = append(conds, cond)
		}
	}

	r := rules.NewRule(action, conds...)

	if labelVal := v.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
		label, err := labelVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		r.Label = label
	}
	if enabledVal := v.LookupPath(cue.ParsePath("enabled")); enabledVal.Exists() {
		enabled, err := enabledVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		r.Enabled = enabled
	}
	if finishVal := v.LookupPath(cue.ParsePath("finish_sequence")); finishVal.Exists() {
		finish, err := finishVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		r.FinishSequence = finish
	}

	return &r, nil
}

// CompileSequence parses a CUE value into a TaskSequence. Like
// rulesets, the id comes from the struct label.
func CompileSequence(v cue.Value) (*library.TaskSequence, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	seq := &library.TaskSequence{ID: labelOf(v)}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seq.Name = name
	} else {
		seq.Name = seq.ID
	}

	if loopVal := v.LookupPath(cue.ParsePath("loop")); loopVal.Exists() {
		loop, err := loopVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seq.Loop = loop
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{
			Field:   "steps",
			Message: "steps list is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		step, err := compileStep(iter.Value())
		if err != nil {
			return nil, err
		}
		seq.Steps = append(seq.Steps, step)
	}
	if len(seq.Steps) == 0 {
		return nil, &CompileError{
			Field:   "steps",
			Message: "sequence requires at least one step",
			Pos:     stepsVal.Pos(),
		}
	}

	return seq, nil
}

// compileStep parses one step struct. Exactly one of the step keys may
// be present: travel_to, work, or deposit.
func compileStep(v cue.Value) (library.TaskStep, error) {
	var step library.TaskStep
	var keys []string

	if nodeVal := v.LookupPath(cue.ParsePath("travel_to")); nodeVal.Exists() {
		node, err := nodeVal.String()
		if err != nil {
			return step, formatCUEError(err)
		}
		step = library.TaskStep{Kind: library.StepTravelTo, Node: node}
		keys = append(keys, "travel_to")
	}
	if rsVal := v.LookupPath(cue.ParsePath("work")); rsVal.Exists() {
		rulesetID, err := rsVal.String()
		if err != nil {
			return step, formatCUEError(err)
		}
		step = library.TaskStep{Kind: library.StepWork, Ruleset: rulesetID}
		keys = append(keys, "work")
	}
	if depVal := v.LookupPath(cue.ParsePath("deposit")); depVal.Exists() {
		dep, err := depVal.Bool()
		if err != nil {
			return step, formatCUEError(err)
		}
		if dep {
			step = library.TaskStep{Kind: library.StepDeposit}
			keys = append(keys, "deposit")
		}
	}

	switch len(keys) {
	case 1:
		return step, nil
	case 0:
		return step, &CompileError{
			Field:   "steps",
			Message: "step must set one of travel_to, work, or deposit",
			Pos:     v.Pos(),
		}
	default:
		return step, &CompileError{
			Field:   "steps",
			Message: fmt.Sprintf("step sets %s; exactly one step key allowed", strings.Join(keys, " and ")),
			Pos:     v.Pos(),
		}
	}
}

// labelOf extracts the entity id from the value's struct label,
// stripping CUE's quoting.
func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return strings.Trim(sels[len(sels)-1].String(), `"`)
}
