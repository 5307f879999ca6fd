// Package store provides SQLite-backed durable storage for the
// automation library and runner assignments.
//
// Rulesets and task sequences persist as canonical JSON TEXT with a
// SHA-256 content hash per row, so two saves of the same entity are
// byte-identical and diffable. Runner automation rows keep soft
// references into the library: a deleted entity leaves no dangling
// foreign key, it surfaces as a runner warning when loaded.
//
// Database configuration:
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
