package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/emberfall/overseer/internal/library"
	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// LoadLibrary reads every persisted ruleset and sequence into a fresh
// library. Rows load in id order so repeated loads build identical
// libraries.
func (s *Store) LoadLibrary(ctx context.Context) (*library.Library, error) {
	lib := library.New()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, rules FROM rulesets ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load rulesets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name, category, rulesJSON string
		if err := rows.Scan(&id, &name, &category, &rulesJSON); err != nil {
			return nil, fmt.Errorf("load rulesets: %w", err)
		}
		rs := &rules.Ruleset{ID: id, Name: name, Category: rules.Category(category)}
		if err := json.Unmarshal([]byte(rulesJSON), &rs.Rules); err != nil {
			return nil, fmt.Errorf("load ruleset %s: %w", id, err)
		}
		if err := lib.PutRuleset(rs); err != nil {
			return nil, fmt.Errorf("load ruleset %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rulesets: %w", err)
	}

	seqRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, loop, steps FROM sequences ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load sequences: %w", err)
	}
	defer seqRows.Close()
	for seqRows.Next() {
		var id, name, stepsJSON string
		var loop int
		if err := seqRows.Scan(&id, &name, &loop, &stepsJSON); err != nil {
			return nil, fmt.Errorf("load sequences: %w", err)
		}
		seq := &library.TaskSequence{ID: id, Name: name, Loop: loop != 0}
		if err := json.Unmarshal([]byte(stepsJSON), &seq.Steps); err != nil {
			return nil, fmt.Errorf("load sequence %s: %w", id, err)
		}
		if err := lib.PutSequence(seq); err != nil {
			return nil, fmt.Errorf("load sequence %s: %w", id, err)
		}
	}
	if err := seqRows.Err(); err != nil {
		return nil, fmt.Errorf("load sequences: %w", err)
	}

	return lib, nil
}

// LoadAutomation reads every runner's persisted assignment, keyed by
// runner id. References are not resolved against the library here; a
// stale id surfaces as a runner warning on the first evaluation pass.
func (s *Store) LoadAutomation(ctx context.Context) (map[string]sim.Automation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runner_id, sequence_id, step_index, macro_ruleset_id,
		       pending_sequence_id, suspended, warning
		FROM runner_automation ORDER BY runner_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load automation: %w", err)
	}
	defer rows.Close()

	out := make(map[string]sim.Automation)
	for rows.Next() {
		var runnerID string
		var a sim.Automation
		var suspended int
		if err := rows.Scan(&runnerID, &a.SequenceID, &a.StepIndex, &a.MacroRulesetID,
			&a.PendingSequenceID, &suspended, &a.Warning); err != nil {
			return nil, fmt.Errorf("load automation: %w", err)
		}
		a.SuspendedUntilLoop = suspended != 0
		out[runnerID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load automation: %w", err)
	}
	return out, nil
}

// RulesetHash returns the stored content hash for one ruleset, or
// ("", nil) when the row does not exist.
func (s *Store) RulesetHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT content_hash FROM rulesets WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("ruleset hash %s: %w", id, err)
	}
	return hash, nil
}
