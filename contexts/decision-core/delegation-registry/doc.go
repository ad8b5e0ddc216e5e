// Package delegationregistry owns the write side of the delegation graph.
//
// A delegation is a directed edge from a follower to a leader, optionally
// scoped to poll categories. The module enforces the graph invariants on
// every write: no self-delegation and at most one edge per (leader, follower)
// pair. The vote engine consumes the resulting edges read-only.
package delegationregistry
