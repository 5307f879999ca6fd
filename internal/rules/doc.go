// Package rules provides the condition/action vocabulary and rule
// evaluation core for the Overseer automation engine.
//
// This package contains value types and pure evaluation functions only.
// All other internal packages import rules; rules imports nothing
// internal. This keeps it the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Conditions and Actions are closed tagged unions (Kind discriminant
//     plus a small fixed payload). Adding a variant means extending the
//     kind set and the evaluator switch, never dynamic dispatch.
//   - Evaluation is pure: conditions read live state through StateView
//     and never write anything. No values are memoized across passes.
//   - Condition lists are AND-composed only. OR and nested grouping are
//     deliberately not part of this vocabulary.
//   - Ruleset evaluation is strictly first-match-wins in declaration
//     order. A higher rule matching a narrow window shadows lower rules
//     for as long as the window holds; that suppression is intentional
//     and must never be "fixed" by reordering.
package rules
