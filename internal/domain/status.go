package domain

// SyncStatus tracks an optimistic mutation of a cached entity.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusPending SyncStatus = "pending"
	StatusFailed  SyncStatus = "failed"
)
