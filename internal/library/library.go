// Package library owns the shared ruleset and task-sequence libraries.
//
// Entities are keyed by stable string id. Runners and work steps hold
// only the id - a lookup key, a weak relation - so many runners may
// alias one entity, and an edit through any path is visible to every
// referent on the next evaluation pass. All mutation goes through
// command methods that validate first and mutate second: a rejected
// command leaves prior state untouched.
//
// The library itself never touches runner state. Deleting an entity
// that runners still reference is finished by the engine's command
// wrappers, which reassign those runners to none in the same command.
package library

import (
	"sort"

	"github.com/google/uuid"

	"github.com/emberfall/overseer/internal/rules"
)

// Library holds all shared automation entities.
type Library struct {
	rulesets  map[string]*rules.Ruleset
	sequences map[string]*TaskSequence
}

func New() *Library {
	return &Library{
		rulesets:  make(map[string]*rules.Ruleset),
		sequences: make(map[string]*TaskSequence),
	}
}

// Ruleset looks up a ruleset by id.
func (l *Library) Ruleset(id string) (*rules.Ruleset, bool) {
	rs, ok := l.rulesets[id]
	return rs, ok
}

// RulesetIDs returns all ruleset ids, sorted for deterministic iteration.
func (l *Library) RulesetIDs() []string {
	ids := make([]string, 0, len(l.rulesets))
	for id := range l.rulesets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CreateRuleset adds an empty ruleset. An empty id is replaced with a
// generated one; the assigned id is returned.
func (l *Library) CreateRuleset(id, name string, category rules.Category) (string, error) {
	if name == "" {
		return "", validationErr(ErrCodeEmptyField, id, "ruleset name is required")
	}
	if category != rules.Macro && category != rules.Micro {
		return "", validationErr(ErrCodeWrongCategory, id, "unknown category %q", category)
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := l.rulesets[id]; exists {
		return "", validationErr(ErrCodeDuplicateID, id, "ruleset id already exists")
	}
	l.rulesets[id] = &rules.Ruleset{ID: id, Name: name, Category: category}
	return id, nil
}

// RenameRuleset changes a ruleset's display name.
func (l *Library) RenameRuleset(id, name string) error {
	rs, ok := l.rulesets[id]
	if !ok {
		return validationErr(ErrCodeNotFound, id, "no such ruleset")
	}
	if name == "" {
		return validationErr(ErrCodeEmptyField, id, "ruleset name is required")
	}
	rs.Name = name
	return nil
}

// DeleteRuleset removes a ruleset. Entity-level only; the engine's
// wrapper clears runner references in the same command.
func (l *Library) DeleteRuleset(id string) error {
	if _, ok := l.rulesets[id]; !ok {
		return validationErr(ErrCodeNotFound, id, "no such ruleset")
	}
	delete(l.rulesets, id)
	return nil
}

// CloneRuleset produces an independent copy under a fresh id; no
// aliasing to the original remains. Returns the new id.
func (l *Library) CloneRuleset(id string) (string, error) {
	rs, ok := l.rulesets[id]
	if !ok {
		return "", validationErr(ErrCodeNotFound, id, "no such ruleset")
	}
	cl := rs.Clone()
	cl.ID = uuid.NewString()
	cl.Name = rs.Name + " (copy)"
	l.rulesets[cl.ID] = cl
	return cl.ID, nil
}

// PutRuleset upserts a fully-formed ruleset after validating it. Used
// by the profile loader and the store's load path.
func (l *Library) PutRuleset(rs *rules.Ruleset) error {
	if rs.ID == "" {
		return validationErr(ErrCodeEmptyField, "", "ruleset id is required")
	}
	if rs.Name == "" {
		return validationErr(ErrCodeEmptyField, rs.ID, "ruleset name is required")
	}
	if rs.Category != rules.Macro && rs.Category != rules.Micro {
		return validationErr(ErrCodeWrongCategory, rs.ID, "unknown category %q", rs.Category)
	}
	for i, r := range rs.Rules {
		if err := l.validateRule(rs.ID, rs.Category, i, r); err != nil {
			return err
		}
	}
	l.rulesets[rs.ID] = rs
	return nil
}

// AddRule appends a rule to a ruleset.
func (l *Library) AddRule(rulesetID string, r rules.Rule) error {
	rs, ok := l.rulesets[rulesetID]
	if !ok {
		return validationErr(ErrCodeNotFound, rulesetID, "no such ruleset")
	}
	if err := l.validateRule(rulesetID, rs.Category, len(rs.Rules), r); err != nil {
		return err
	}
	rs.Rules = append(rs.Rules, r)
	return nil
}

// RemoveRule deletes the rule at index, preserving the order of the rest.
func (l *Library) RemoveRule(rulesetID string, index int) error {
	rs, ok := l.rulesets[rulesetID]
	if !ok {
		return validationErr(ErrCodeNotFound, rulesetID, "no such ruleset")
	}
	if index < 0 || index >= len(rs.Rules) {
		return validationErr(ErrCodeBadIndex, rulesetID, "rule index %d out of range", index)
	}
	rs.Rules = append(rs.Rules[:index], rs.Rules[index+1:]...)
	return nil
}

// MoveRule relocates a rule from one index to another. Ordering is
// priority, so this is how rules are re-prioritized.
func (l *Library) MoveRule(rulesetID string, from, to int) error {
	rs, ok := l.rulesets[rulesetID]
	if !ok {
		return validationErr(ErrCodeNotFound, rulesetID, "no such ruleset")
	}
	if from < 0 || from >= len(rs.Rules) || to < 0 || to >= len(rs.Rules) {
		return validationErr(ErrCodeBadIndex, rulesetID, "move %d -> %d out of range", from, to)
	}
	if from == to {
		return nil
	}
	r := rs.Rules[from]
	rest := append(rs.Rules[:from], rs.Rules[from+1:]...)
	rs.Rules = append(rest[:to], append([]rules.Rule{r}, rest[to:]...)...)
	return nil
}

// UpdateRule replaces the rule at index.
func (l *Library) UpdateRule(rulesetID string, index int, r rules.Rule) error {
	rs, ok := l.rulesets[rulesetID]
	if !ok {
		return validationErr(ErrCodeNotFound, rulesetID, "no such ruleset")
	}
	if index < 0 || index >= len(rs.Rules) {
		return validationErr(ErrCodeBadIndex, rulesetID, "rule index %d out of range", index)
	}
	if err := l.validateRule(rulesetID, rs.Category, index, r); err != nil {
		return err
	}
	rs.Rules[index] = r
	return nil
}

func (l *Library) validateRule(rulesetID string, category rules.Category, index int, r rules.Rule) error {
	for _, c := range r.Conditions {
		if !rules.ValidConditionKinds[c.Kind] {
			return validationErr(ErrCodeUnknownKind, rulesetID, "rule %d: unknown condition kind %q", index, c.Kind)
		}
	}
	if !rules.ValidActionKinds[r.Action.Kind] {
		return validationErr(ErrCodeUnknownKind, rulesetID, "rule %d: unknown action kind %q", index, r.Action.Kind)
	}
	if r.Action.Kind == rules.ActAssignSequence && category != rules.Macro {
		return validationErr(ErrCodeWrongCategory, rulesetID, "rule %d: assign_sequence is macro-only", index)
	}
	if r.Action.Kind == rules.ActAssignSequence && r.Action.Sequence == "" {
		return validationErr(ErrCodeEmptyField, rulesetID, "rule %d: assign_sequence needs a sequence id", index)
	}
	return nil
}
