package store

import (
	"context"
	"fmt"

	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// SaveRuleset upserts one ruleset. The rule list is serialized as
// canonical JSON so repeated saves of the same entity produce identical
// rows.
func (s *Store) SaveRuleset(ctx context.Context, rs *rules.Ruleset) error {
	rulesJSON, err := canonicalJSON(rs.Rules)
	if err != nil {
		return fmt.Errorf("save ruleset %s: %w", rs.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rulesets (id, name, category, rules, content_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			rules = excluded.rules,
			content_hash = excluded.content_hash
	`, rs.ID, rs.Name, string(rs.Category), string(rulesJSON), contentHash(rulesJSON))
	if err != nil {
		return fmt.Errorf("save ruleset %s: %w", rs.ID, err)
	}
	return nil
}

// SaveSequence upserts one task sequence.
func (s *Store) SaveSequence(ctx context.Context, seq *library.TaskSequence) error {
	stepsJSON, err := canonicalJSON(seq.Steps)
	if err != nil {
		return fmt.Errorf("save sequence %s: %w", seq.ID, err)
	}
	loop := 0
	if seq.Loop {
		loop = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sequences (id, name, loop, steps, content_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			loop = excluded.loop,
			steps = excluded.steps,
			content_hash = excluded.content_hash
	`, seq.ID, seq.Name, loop, string(stepsJSON), contentHash(stepsJSON))
	if err != nil {
		return fmt.Errorf("save sequence %s: %w", seq.ID, err)
	}
	return nil
}

// SaveLibrary replaces the persisted library wholesale in one
// transaction: entities deleted in memory disappear from the database
// too.
func (s *Store) SaveLibrary(ctx context.Context, lib *library.Library) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rulesets"); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sequences"); err != nil {
		return fmt.Errorf("save library: %w", err)
	}

	for _, id := range lib.RulesetIDs() {
		rs, _ := lib.Ruleset(id)
		rulesJSON, err := canonicalJSON(rs.Rules)
		if err != nil {
			return fmt.Errorf("save library: ruleset %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rulesets (id, name, category, rules, content_hash)
			VALUES (?, ?, ?, ?, ?)
		`, rs.ID, rs.Name, string(rs.Category), string(rulesJSON), contentHash(rulesJSON)); err != nil {
			return fmt.Errorf("save library: ruleset %s: %w", id, err)
		}
	}
	for _, id := range lib.SequenceIDs() {
		seq, _ := lib.Sequence(id)
		stepsJSON, err := canonicalJSON(seq.Steps)
		if err != nil {
			return fmt.Errorf("save library: sequence %s: %w", id, err)
		}
		loop := 0
		if seq.Loop {
			loop = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sequences (id, name, loop, steps, content_hash)
			VALUES (?, ?, ?, ?, ?)
		`, seq.ID, seq.Name, loop, string(stepsJSON), contentHash(stepsJSON)); err != nil {
			return fmt.Errorf("save library: sequence %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	return nil
}

// SaveAutomation upserts one runner's automation assignment.
func (s *Store) SaveAutomation(ctx context.Context, runnerID string, a sim.Automation) error {
	suspended := 0
	if a.SuspendedUntilLoop {
		suspended = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runner_automation
		(runner_id, sequence_id, step_index, macro_ruleset_id, pending_sequence_id, suspended, warning)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(runner_id) DO UPDATE SET
			sequence_id = excluded.sequence_id,
			step_index = excluded.step_index,
			macro_ruleset_id = excluded.macro_ruleset_id,
			pending_sequence_id = excluded.pending_sequence_id,
			suspended = excluded.suspended,
			warning = excluded.warning
	`, runnerID, a.SequenceID, a.StepIndex, a.MacroRulesetID, a.PendingSequenceID, suspended, a.Warning)
	if err != nil {
		return fmt.Errorf("save automation for %s: %w", runnerID, err)
	}
	return nil
}

// DeleteRuleset removes a persisted ruleset row. Missing rows are not
// an error; the in-memory library owns existence checks.
func (s *Store) DeleteRuleset(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM rulesets WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete ruleset %s: %w", id, err)
	}
	return nil
}

// DeleteSequence removes a persisted sequence row.
func (s *Store) DeleteSequence(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sequences WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete sequence %s: %w", id, err)
	}
	return nil
}
