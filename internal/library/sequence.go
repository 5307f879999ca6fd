package library

import (
	"sort"

	"github.com/google/uuid"
)

// StepKind discriminates the closed task-step union.
type StepKind string

const (
	StepTravelTo StepKind = "travel_to"
	StepWork     StepKind = "work"
	StepDeposit  StepKind = "deposit"
)

// ValidStepKinds is the closed step vocabulary.
var ValidStepKinds = map[StepKind]bool{
	StepTravelTo: true,
	StepWork:     true,
	StepDeposit:  true,
}

// TaskStep is one step of a sequence. Node is the travel target for
// travel_to steps; Ruleset is the micro ruleset id for work steps.
// Steps are immutable once part of a sequence except through the
// explicit edit commands below.
type TaskStep struct {
	Kind    StepKind `json:"kind"`
	Node    string   `json:"node,omitempty"`
	Ruleset string   `json:"ruleset,omitempty"`
}

// TaskSequence is an ordered, named, optionally looping step list.
// Runners alias sequences by id exactly as they alias rulesets.
type TaskSequence struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Loop  bool       `json:"loop"`
	Steps []TaskStep `json:"steps"`
}

// Clone returns a deep copy; the caller assigns the new identity.
func (s *TaskSequence) Clone() *TaskSequence {
	return &TaskSequence{
		ID:    s.ID,
		Name:  s.Name,
		Loop:  s.Loop,
		Steps: append([]TaskStep(nil), s.Steps...),
	}
}

// Sequence looks up a task sequence by id.
func (l *Library) Sequence(id string) (*TaskSequence, bool) {
	s, ok := l.sequences[id]
	return s, ok
}

// SequenceIDs returns all sequence ids, sorted for deterministic iteration.
func (l *Library) SequenceIDs() []string {
	ids := make([]string, 0, len(l.sequences))
	for id := range l.sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CreateSequence adds an empty sequence. An empty id is replaced with a
// generated one; the assigned id is returned.
func (l *Library) CreateSequence(id, name string, loop bool) (string, error) {
	if name == "" {
		return "", validationErr(ErrCodeEmptyField, id, "sequence name is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := l.sequences[id]; exists {
		return "", validationErr(ErrCodeDuplicateID, id, "sequence id already exists")
	}
	l.sequences[id] = &TaskSequence{ID: id, Name: name, Loop: loop}
	return id, nil
}

// RenameSequence changes a sequence's display name.
func (l *Library) RenameSequence(id, name string) error {
	s, ok := l.sequences[id]
	if !ok {
		return validationErr(ErrCodeNotFound, id, "no such sequence")
	}
	if name == "" {
		return validationErr(ErrCodeEmptyField, id, "sequence name is required")
	}
	s.Name = name
	return nil
}

// DeleteSequence removes a sequence. Entity-level only; the engine's
// wrapper clears runner references in the same command.
func (l *Library) DeleteSequence(id string) error {
	if _, ok := l.sequences[id]; !ok {
		return validationErr(ErrCodeNotFound, id, "no such sequence")
	}
	delete(l.sequences, id)
	return nil
}

// CloneSequence produces an independent copy under a fresh id.
func (l *Library) CloneSequence(id string) (string, error) {
	s, ok := l.sequences[id]
	if !ok {
		return "", validationErr(ErrCodeNotFound, id, "no such sequence")
	}
	cl := s.Clone()
	cl.ID = uuid.NewString()
	cl.Name = s.Name + " (copy)"
	l.sequences[cl.ID] = cl
	return cl.ID, nil
}

// PutSequence upserts a fully-formed sequence after validating it.
func (l *Library) PutSequence(s *TaskSequence) error {
	if s.ID == "" {
		return validationErr(ErrCodeEmptyField, "", "sequence id is required")
	}
	if s.Name == "" {
		return validationErr(ErrCodeEmptyField, s.ID, "sequence name is required")
	}
	for i, step := range s.Steps {
		if err := validateStep(s.ID, i, step); err != nil {
			return err
		}
	}
	l.sequences[s.ID] = s
	return nil
}

// AddStep appends a step to a sequence.
func (l *Library) AddStep(sequenceID string, step TaskStep) error {
	s, ok := l.sequences[sequenceID]
	if !ok {
		return validationErr(ErrCodeNotFound, sequenceID, "no such sequence")
	}
	if err := validateStep(sequenceID, len(s.Steps), step); err != nil {
		return err
	}
	s.Steps = append(s.Steps, step)
	return nil
}

// RemoveStep deletes the step at index.
func (l *Library) RemoveStep(sequenceID string, index int) error {
	s, ok := l.sequences[sequenceID]
	if !ok {
		return validationErr(ErrCodeNotFound, sequenceID, "no such sequence")
	}
	if index < 0 || index >= len(s.Steps) {
		return validationErr(ErrCodeBadIndex, sequenceID, "step index %d out of range", index)
	}
	s.Steps = append(s.Steps[:index], s.Steps[index+1:]...)
	return nil
}

// SetStepTarget updates a step's reference: the travel node for
// travel_to steps, the micro ruleset id for work steps.
func (l *Library) SetStepTarget(sequenceID string, index int, target string) error {
	s, ok := l.sequences[sequenceID]
	if !ok {
		return validationErr(ErrCodeNotFound, sequenceID, "no such sequence")
	}
	if index < 0 || index >= len(s.Steps) {
		return validationErr(ErrCodeBadIndex, sequenceID, "step index %d out of range", index)
	}
	if target == "" {
		return validationErr(ErrCodeEmptyField, sequenceID, "step target is required")
	}
	switch s.Steps[index].Kind {
	case StepTravelTo:
		s.Steps[index].Node = target
	case StepWork:
		s.Steps[index].Ruleset = target
	default:
		return validationErr(ErrCodeWrongCategory, sequenceID, "step %d (%s) has no target", index, s.Steps[index].Kind)
	}
	return nil
}

func validateStep(sequenceID string, index int, step TaskStep) error {
	if !ValidStepKinds[step.Kind] {
		return validationErr(ErrCodeUnknownKind, sequenceID, "step %d: unknown kind %q", index, step.Kind)
	}
	if step.Kind == StepTravelTo && step.Node == "" {
		return validationErr(ErrCodeEmptyField, sequenceID, "step %d: travel_to needs a node", index)
	}
	if step.Kind == StepWork && step.Ruleset == "" {
		return validationErr(ErrCodeEmptyField, sequenceID, "step %d: work needs a micro ruleset", index)
	}
	return nil
}
