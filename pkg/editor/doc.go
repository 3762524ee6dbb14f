// Package editor implements the in-memory editing model for one province:
// an entity store that owns the session's province/district graph, a bounded
// undo/redo history of typed actions, a permission gate, a pan/zoom/drag
// viewport and a persistence bridge with best-effort save semantics.
//
// Control flow for every mutation: the gate approves, the entity store is
// mutated, then the action is recorded on the history. Snapshots held by
// history entries are deep copies; nothing in the log aliases the live
// graph.
package editor
