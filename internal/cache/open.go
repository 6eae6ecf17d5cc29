package cache

import (
	"fmt"

	"github.com/mathschool/sync-core/pkg/config"
)

// Open constructs the snapshot backend selected by configuration.
func Open(cfg config.CacheConfig) (Snapshots, error) {
	switch cfg.Backend {
	case config.CacheBackendFilesystem, "":
		return NewFileStore(cfg.Dir)
	case config.CacheBackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.CacheBackendRedis:
		client, err := NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
