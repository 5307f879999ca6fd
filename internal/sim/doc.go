// Package sim holds the live simulation state the automation engine
// reads and the mechanical effects it invokes: runners, nodes, the
// shared bank, and per-tick advancement of travel, gathering, and
// depositing.
//
// sim knows nothing about rules or rulesets. The engine observes this
// state through read-only views, issues effect requests (set
// destination, begin gathering, begin deposit), and consumes the events
// each tick produces. Mechanical completion stays owned here: an
// automation request never bypasses an operation's own completion or
// interruption rules.
package sim
