// Package engine implements the Overseer evaluation scheduler.
//
// The engine drives two independent rule layers over the runners of a
// world: the macro layer decides which task sequence a runner executes,
// the micro layer decides in-step behavior while a work step is current.
//
// ARCHITECTURE:
//
// Single-threaded tick loop:
// All evaluation happens inline within one simulation tick's control
// flow. There is no parallel evaluation of rules, runners, or layers,
// and nothing blocks or suspends. This ensures:
//   - Predictable rule evaluation order
//   - Reproducible decision logs for the same inputs
//   - Simple reasoning about causality
//
// Tick processing flow:
//  1. The world advances mechanics (travel, gathering, depositing) and
//     emits state-change events.
//  2. Events complete task-sequence steps and mark runners dirty per
//     layer; bank changes mark every runner's macro layer, because the
//     bank is shared state.
//  3. The periodic safety net marks any runner not evaluated within the
//     configured interval. It is just another trigger source feeding
//     the same synchronous path, not a timer callback.
//  4. Dirty runners evaluate micro first, then macro, each in
//     runner-creation order. A fired rule's action is applied within
//     the same call that matched it; there is no separate apply phase.
//
// Sequence swap policy:
// A macro assign_sequence with finish_sequence true while mid-cycle is
// deferred: the pending id is parked on the runner, macro evaluation is
// suspended, and the swap lands when the step index returns to zero (or
// the non-looping sequence terminates). With finish_sequence false the
// swap happens within the matching pass; whether the in-flight
// mechanical operation can be interrupted remains the simulation's
// decision.
//
// Error posture:
// Unresolvable references and rulesets that match nothing are never
// fatal. The runner parks in place with a human-readable warning that
// is re-checked every pass and clears the moment the configuration is
// fixed.
package engine
