package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mathschool/sync-core/internal/models"
)

// FileStore persists one JSON snapshot file per collection under a base dir.
type FileStore struct {
	baseDir  string
	capacity int64
}

// NewFileStore ensures the base directory exists and returns a handle.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./data/cache"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{baseDir: baseDir, capacity: DefaultCapacity}, nil
}

// Backup writes the snapshot for the collection, replacing any prior one.
func (s *FileStore) Backup(ctx context.Context, collection string, payload interface{}) error {
	raw, err := encodeSnapshot(payload)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", collection, err)
	}
	if err := os.WriteFile(s.path(collection), raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", collection, err)
	}
	return nil
}

// Restore loads the last snapshot payload into dest.
func (s *FileStore) Restore(ctx context.Context, collection string, dest interface{}) (bool, error) {
	raw, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot %s: %w", collection, err)
	}
	return decodeSnapshot(raw, dest), nil
}

// ClearAll removes every known collection snapshot file.
func (s *FileStore) ClearAll(ctx context.Context) error {
	for _, collection := range models.Collections() {
		if err := os.Remove(s.path(collection)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove snapshot %s: %w", collection, err)
		}
	}
	return nil
}

// Usage sums snapshot file sizes against the capacity estimate.
func (s *FileStore) Usage(ctx context.Context) (models.CacheUsage, error) {
	var used int64
	for _, collection := range models.Collections() {
		info, err := os.Stat(s.path(collection))
		if err != nil {
			continue
		}
		used += info.Size()
	}
	return usageFrom(used, s.capacity), nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.baseDir, collection+".json")
}
