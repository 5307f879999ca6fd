// Package harness provides scenario-driven conformance testing for the
// automation engine.
//
// A scenario is a YAML file declaring a world, a CUE automation
// profile, runners with their assignments, a tick count, and
// assertions over the end state and the decision journals:
//
//	name: iron_quota
//	description: "Switches to the coal run once the iron quota fills"
//	profile: |
//	  ruleset: "overseer": { ... }
//	  sequence: "mining_run": { ... }
//	world:
//	  nodes:
//	    - id: hub
//	      hub: true
//	      travel: {mine: 3}
//	    - id: mine
//	      gatherables: [{item: iron_ore, ticks: 2, skill: mining, xp: 10}]
//	runners:
//	  - id: r1
//	    node: hub
//	    capacity: 2
//	    macro_ruleset: overseer
//	ticks: 30
//	assertions:
//	  - type: bank_contains
//	    item: iron_ore
//	    at_least: 4
//	  - type: journal_contains
//	    layer: macro
//	    runner: r1
//	    action: assign_sequence(coal_run)
//
// # Assertion Types
//
//   - runner_state: sequence, step, state, node, and warning of one runner
//   - bank_contains: exact or minimum bank count for an item
//   - journal_contains: a decision appears in the macro or micro journal
//   - warning: a runner's warning contains a substring, or is absent
//
// # Deterministic Execution
//
// The engine is single-threaded and tick-driven, so a scenario's
// journals are identical across runs. RunWithGolden serializes both
// journals and compares them against a golden file under
// testdata/golden; regenerate with:
//
//	go test ./internal/harness -update
package harness
