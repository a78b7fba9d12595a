package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	appapproval "github.com/procura/backoffice/internal/application/approval"
	"github.com/procura/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// counterTTL bounds staleness when increments are lost; the engine re-primes
// the key from the database after expiry.
const counterTTL = 24 * time.Hour

// InMemoryUnseenCounterStore keeps inbox badge counts in process memory.
// Suitable for single-instance deployments and tests.
type InMemoryUnseenCounterStore struct {
	mu     sync.RWMutex
	counts map[uuid.UUID]int64
}

// NewInMemoryUnseenCounterStore creates an empty in-memory counter store
func NewInMemoryUnseenCounterStore() *InMemoryUnseenCounterStore {
	return &InMemoryUnseenCounterStore{counts: make(map[uuid.UUID]int64)}
}

// Increment adjusts a responder's unseen count by delta, clamping at zero
func (s *InMemoryUnseenCounterStore) Increment(_ context.Context, responderID uuid.UUID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.counts[responderID] + delta
	if next < 0 {
		next = 0
	}
	s.counts[responderID] = next
	return nil
}

// Set overwrites a responder's unseen count
func (s *InMemoryUnseenCounterStore) Set(_ context.Context, responderID uuid.UUID, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[responderID] = value
	return nil
}

// Get returns a responder's cached unseen count; ok is false on a miss
func (s *InMemoryUnseenCounterStore) Get(_ context.Context, responderID uuid.UUID) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count, ok := s.counts[responderID]
	return count, ok, nil
}

// RedisUnseenCounterStore keeps inbox badge counts in Redis so multiple
// instances share the same badge state.
type RedisUnseenCounterStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisUnseenCounterStore connects to Redis and returns a counter store
func NewRedisUnseenCounterStore(cfg *config.RedisConfig) (*RedisUnseenCounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisUnseenCounterStore{
		client:    client,
		keyPrefix: "approval:unseen:",
	}, nil
}

// NewRedisUnseenCounterStoreWithClient creates a store with an existing client,
// useful for testing or when sharing a client across components
func NewRedisUnseenCounterStoreWithClient(client *redis.Client, keyPrefix string) *RedisUnseenCounterStore {
	if keyPrefix == "" {
		keyPrefix = "approval:unseen:"
	}
	return &RedisUnseenCounterStore{client: client, keyPrefix: keyPrefix}
}

// Increment adjusts a responder's unseen count by delta
func (s *RedisUnseenCounterStore) Increment(ctx context.Context, responderID uuid.UUID, delta int64) error {
	key := s.keyPrefix + responderID.String()
	next, err := s.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return fmt.Errorf("failed to adjust unseen counter: %w", err)
	}
	if next < 0 {
		// Lost increments can drive the counter negative; clamp rather than
		// surface a nonsense badge.
		if err := s.client.Set(ctx, key, 0, counterTTL).Err(); err != nil {
			return fmt.Errorf("failed to clamp unseen counter: %w", err)
		}
		return nil
	}
	if err := s.client.Expire(ctx, key, counterTTL).Err(); err != nil {
		return fmt.Errorf("failed to refresh unseen counter TTL: %w", err)
	}
	return nil
}

// Set overwrites a responder's unseen count
func (s *RedisUnseenCounterStore) Set(ctx context.Context, responderID uuid.UUID, value int64) error {
	key := s.keyPrefix + responderID.String()
	if err := s.client.Set(ctx, key, value, counterTTL).Err(); err != nil {
		return fmt.Errorf("failed to set unseen counter: %w", err)
	}
	return nil
}

// Get returns a responder's cached unseen count; ok is false on a miss
func (s *RedisUnseenCounterStore) Get(ctx context.Context, responderID uuid.UUID) (int64, bool, error) {
	key := s.keyPrefix + responderID.String()
	count, err := s.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read unseen counter: %w", err)
	}
	return count, true, nil
}

// Close closes the Redis client
func (s *RedisUnseenCounterStore) Close() error {
	return s.client.Close()
}

var _ appapproval.UnseenCounterStore = (*InMemoryUnseenCounterStore)(nil)
var _ appapproval.UnseenCounterStore = (*RedisUnseenCounterStore)(nil)
