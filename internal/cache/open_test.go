package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathschool/sync-core/pkg/config"
)

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open(config.CacheConfig{Backend: config.CacheBackendFilesystem, Dir: dir})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, fs)

	// Empty backend defaults to filesystem.
	fs, err = Open(config.CacheConfig{Dir: dir})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, fs)

	sq, err := Open(config.CacheConfig{Backend: config.CacheBackendSQLite, SQLitePath: filepath.Join(dir, "cache.db")})
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, sq)
	require.NoError(t, sq.(*SQLiteStore).Close())

	_, err = Open(config.CacheConfig{Backend: "memcached"})
	require.Error(t, err)
}
