package compiler

import (
	"fmt"

	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateRulesetID  = "E100" // ruleset id declared twice
	ErrDuplicateSequenceID = "E101" // sequence id declared twice
	ErrUnknownSequenceRef  = "E102" // assign targets an undeclared sequence
	ErrAssignInMicro       = "E103" // assign action inside a micro ruleset
	ErrUnknownRulesetRef   = "E104" // work step targets an undeclared ruleset
	ErrWrongCategoryRef    = "E105" // work step targets a macro ruleset
	ErrRulesetEmpty        = "E106" // ruleset declares no rules
)

// ValidationError is one cross-reference failure in a compiled profile.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate cross-checks a compiled profile: ids are unique and every
// reference between entities resolves to the right category. Returns
// all errors found, not just the first.
//
// References into the world (node ids, gatherable indexes) are not
// checked here; those depend on the world the profile is loaded into
// and surface as runner warnings at runtime.
func Validate(p *Profile) []ValidationError {
	var errs []ValidationError

	rulesetCategory := make(map[string]rules.Category)
	for _, rs := range p.Rulesets {
		field := fmt.Sprintf("ruleset.%s", rs.ID)
		if _, dup := rulesetCategory[rs.ID]; dup {
			errs = append(errs, ValidationError{
				Code:    ErrDuplicateRulesetID,
				Field:   field,
				Message: fmt.Sprintf("ruleset %q declared more than once", rs.ID),
			})
		}
		rulesetCategory[rs.ID] = rs.Category
		if len(rs.Rules) == 0 {
			errs = append(errs, ValidationError{
				Code:    ErrRulesetEmpty,
				Field:   field,
				Message: fmt.Sprintf("ruleset %q has no rules and can only stall", rs.ID),
			})
		}
	}

	sequences := make(map[string]bool)
	for _, seq := range p.Sequences {
		if sequences[seq.ID] {
			errs = append(errs, ValidationError{
				Code:    ErrDuplicateSequenceID,
				Field:   fmt.Sprintf("sequence.%s", seq.ID),
				Message: fmt.Sprintf("sequence %q declared more than once", seq.ID),
			})
		}
		sequences[seq.ID] = true
	}

	for _, rs := range p.Rulesets {
		for i, r := range rs.Rules {
			if r.Action.Kind != rules.ActAssignSequence {
				continue
			}
			field := fmt.Sprintf("ruleset.%s.rules[%d]", rs.ID, i)
			if rs.Category != rules.Macro {
				errs = append(errs, ValidationError{
					Code:    ErrAssignInMicro,
					Field:   field,
					Message: "assign is a macro-layer action",
				})
			}
			if !sequences[r.Action.Sequence] {
				errs = append(errs, ValidationError{
					Code:    ErrUnknownSequenceRef,
					Field:   field,
					Message: fmt.Sprintf("assign targets undeclared sequence %q", r.Action.Sequence),
				})
			}
		}
	}

	for _, seq := range p.Sequences {
		for i, step := range seq.Steps {
			if step.Kind != library.StepWork {
				continue
			}
			field := fmt.Sprintf("sequence.%s.steps[%d]", seq.ID, i)
			cat, ok := rulesetCategory[step.Ruleset]
			if !ok {
				errs = append(errs, ValidationError{
					Code:    ErrUnknownRulesetRef,
					Field:   field,
					Message: fmt.Sprintf("work step targets undeclared ruleset %q", step.Ruleset),
				})
				continue
			}
			if cat != rules.Micro {
				errs = append(errs, ValidationError{
					Code:    ErrWrongCategoryRef,
					Field:   field,
					Message: fmt.Sprintf("work step targets macro ruleset %q", step.Ruleset),
				})
			}
		}
	}

	return errs
}
