package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mathschool/sync-core/internal/models"
)

// DefaultCapacity approximates the browser localStorage quota the original
// snapshots were sized against.
const DefaultCapacity int64 = 5 << 20

// Snapshots abstracts persistent snapshot storage. One snapshot per
// collection key; Backup overwrites, there is no history.
type Snapshots interface {
	// Backup serializes the payload into a versioned snapshot and overwrites
	// the prior one for the collection.
	Backup(ctx context.Context, collection string, payload interface{}) error
	// Restore loads the last snapshot payload into dest. It reports false
	// when no snapshot exists or the stored bytes do not deserialize; a
	// corrupt snapshot is treated as absent, never as an error.
	Restore(ctx context.Context, collection string, dest interface{}) (bool, error)
	// ClearAll removes every known collection snapshot. Absent keys are fine.
	ClearAll(ctx context.Context) error
	// Usage reports storage consumption. It never mutates.
	Usage(ctx context.Context) (models.CacheUsage, error)
}

func encodeSnapshot(payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	snap := models.CacheSnapshot{
		Version:   models.SnapshotVersion,
		Timestamp: time.Now().UTC(),
		Payload:   body,
	}
	return json.Marshal(snap)
}

// decodeSnapshot unwraps the envelope into dest. False means unusable bytes.
func decodeSnapshot(raw []byte, dest interface{}) bool {
	var snap models.CacheSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return false
	}
	if len(snap.Payload) == 0 {
		return false
	}
	return json.Unmarshal(snap.Payload, dest) == nil
}

func usageFrom(used, capacity int64) models.CacheUsage {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	pct := float64(used) / float64(capacity) * 100
	return models.CacheUsage{Used: used, CapacityEstimate: capacity, Percentage: pct}
}
