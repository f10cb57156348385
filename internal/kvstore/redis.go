package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisFieldValue     = "value"
	redisFieldVersion   = "version"
	redisFieldUpdatedAt = "updated_at"
)

// RedisConfig configures a redis backed store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps each entry in a hash and uses WATCH/MULTI for versioned writes.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// OpenRedis connects to redis and verifies the connection.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("kvstore: ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.KeyPrefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Entry{}, ErrNotFound
	}
	return decodeRedisEntry(key, fields)
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	redisKey := s.key(key)
	next := expectedVersion + 1

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, redisKey, redisFieldVersion).Int64()
		switch {
		case errors.Is(err, redis.Nil):
			current = 0
		case err != nil:
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, redisKey,
				redisFieldValue, value,
				redisFieldVersion, next,
				redisFieldUpdatedAt, s.now().UTC().UnixMilli(),
			)
			return nil
		})
		return err
	}, redisKey)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, ErrVersionConflict
	default:
		return 0, fmt.Errorf("kvstore: put %s: %w", key, err)
	}
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRedisEntry(key string, fields map[string]string) (Entry, error) {
	version, err := strconv.ParseInt(fields[redisFieldVersion], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("kvstore: decode %s version: %w", key, err)
	}
	entry := Entry{Key: key, Value: []byte(fields[redisFieldValue]), Version: version}
	if raw, ok := fields[redisFieldUpdatedAt]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			entry.UpdatedAt = time.UnixMilli(ms).UTC()
		}
	}
	return entry, nil
}
