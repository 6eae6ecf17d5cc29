package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/pkg/config"
)

// RedisStore keeps snapshots in Redis under namespaced keys, for deployments
// where the client cache should survive host restarts.
type RedisStore struct {
	client   *redis.Client
	prefix   string
	capacity int64
}

// NewRedisClient returns a configured and pinged Redis client.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// NewRedisStore constructs a snapshot store over an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mathschool"
	}
	return &RedisStore{client: client, prefix: prefix, capacity: DefaultCapacity}
}

// Backup overwrites the collection snapshot.
func (s *RedisStore) Backup(ctx context.Context, collection string, payload interface{}) error {
	raw, err := encodeSnapshot(payload)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", collection, err)
	}
	if err := s.client.Set(ctx, s.key(collection), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", collection, err)
	}
	return nil
}

// Restore loads the last snapshot payload into dest.
func (s *RedisStore) Restore(ctx context.Context, collection string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", collection, err)
	}
	return decodeSnapshot(raw, dest), nil
}

// ClearAll deletes every known collection key.
func (s *RedisStore) ClearAll(ctx context.Context) error {
	keys := make([]string, 0, len(models.Collections()))
	for _, collection := range models.Collections() {
		keys = append(keys, s.key(collection))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del snapshots: %w", err)
	}
	return nil
}

// Usage sums stored snapshot sizes.
func (s *RedisStore) Usage(ctx context.Context) (models.CacheUsage, error) {
	var used int64
	for _, collection := range models.Collections() {
		n, err := s.client.StrLen(ctx, s.key(collection)).Result()
		if err != nil {
			continue
		}
		used += n
	}
	return usageFrom(used, s.capacity), nil
}

func (s *RedisStore) key(collection string) string {
	return s.prefix + ":snapshot:" + collection
}
