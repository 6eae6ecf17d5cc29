package models

import (
	"encoding/json"
	"time"
)

// SnapshotVersion is bumped when the snapshot envelope changes shape.
const SnapshotVersion = 1

// CacheSnapshot is the unit written to the persistent cache. It round-trips
// losslessly: restore(backup(x)) == x for any serializable payload.
type CacheSnapshot struct {
	Version   int             `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Persisted collection keys. Each key holds exactly one snapshot.
const (
	CollectionRegistrations  = "registration_data"
	CollectionMaterials      = "materials_data"
	CollectionPendingSync    = "pending_sync"
	CollectionTeacherFilters = "teacher_filters"
	CollectionOfflineMode    = "offline_mode"
	CollectionPreferences    = "user_preferences"
)

// Collections lists every known snapshot key, used by ClearAll.
func Collections() []string {
	return []string{
		CollectionRegistrations,
		CollectionMaterials,
		CollectionPendingSync,
		CollectionTeacherFilters,
		CollectionOfflineMode,
		CollectionPreferences,
	}
}

// CacheUsage reports persistent cache consumption. Reads only, never mutates.
type CacheUsage struct {
	Used             int64   `json:"used"`
	CapacityEstimate int64   `json:"capacity_estimate"`
	Percentage       float64 `json:"percentage"`
}
