// Package models defines client-side data models used by the TrainTrack CLI:
// locally mirrored entities, their dual local/remote identifiers, and the
// per-row synchronization status.
package models

// SyncStatus describes how a local row relates to its server counterpart.
type SyncStatus string

const (
	// StatusSynced means the row matches the last known server state.
	StatusSynced SyncStatus = "synced"
	// StatusCreated means the row exists only locally and was never pushed.
	StatusCreated SyncStatus = "created"
	// StatusUpdated means the row was pushed once but has local edits since.
	StatusUpdated SyncStatus = "updated"
	// StatusDeleted means the row was deleted locally and the deletion
	// still has to propagate to the server.
	StatusDeleted SyncStatus = "deleted"
)

// Dirty reports whether the row still has changes the server has not seen.
func (s SyncStatus) Dirty() bool {
	return s == StatusCreated || s == StatusUpdated
}
