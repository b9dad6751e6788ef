package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Store is an explicit keyed store of cached reads. Values are stored as JSON so
// callers never share mutable records with the cache.
type Store interface {
	// Get unmarshals the cached value into dest. Returns (false, nil) on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores v under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// Invalidate evicts one key.
	Invalidate(ctx context.Context, key string) error
	// InvalidatePrefix evicts every key starting with prefix and returns how many were evicted.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
	// Name identifies the backend in logs and spans.
	Name() string
}

// keyspace namespaces every Redis key owned by this service.
const keyspace = "pm:"

// RedisStore keeps cached reads in Redis, shared by every replica.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an already connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.rdb.Get(ctx, keyspace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyspace+key, b, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyspace+key).Err()
}

func (s *RedisStore) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		evicted int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, keyspace+prefix+"*", 100).Result()
		if err != nil {
			return evicted, err
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return evicted, err
			}
			evicted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return evicted, nil
		}
	}
}

type localEntry struct {
	data    []byte
	expires time.Time
}

// LocalStore keeps cached reads in a bounded in-process LRU.
type LocalStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, localEntry]
	now   func() time.Time
}

// NewLocalStore creates an LRU-backed store holding at most size entries.
func NewLocalStore(size int) (*LocalStore, error) {
	c, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create local cache: %w", err)
	}
	return &LocalStore{cache: c, now: time.Now}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	entry, ok := s.cache.Get(key)
	if ok && !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		s.cache.Remove(key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalStore) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entry := localEntry{data: b}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.cache.Add(key, entry)
	s.mu.Unlock()
	return nil
}

func (s *LocalStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	s.cache.Remove(key)
	s.mu.Unlock()
	return nil
}

func (s *LocalStore) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
			evicted++
		}
	}
	return evicted, nil
}

// NewStore picks the Redis store when a client is available, the local LRU otherwise.
func NewStore(rdb *redis.Client, localSize int) (Store, error) {
	if rdb != nil {
		return NewRedisStore(rdb), nil
	}
	local, err := NewLocalStore(localSize)
	if err != nil {
		return nil, err
	}
	return local, nil
}
