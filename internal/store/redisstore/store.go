package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store caches the latest per-user chat summary for cheap downstream
// retrieval. The users table remains the source of truth.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{rdb: rdb, ttl: ttl}
}

func summaryKey(userID string) string {
	return "summary:" + userID
}

func (s *Store) SetSummary(ctx context.Context, userID, summary string) error {
	return s.rdb.Set(ctx, summaryKey(userID), summary, s.ttl).Err()
}

// GetSummary returns redis.Nil when no cached summary exists.
func (s *Store) GetSummary(ctx context.Context, userID string) (string, error) {
	return s.rdb.Get(ctx, summaryKey(userID)).Result()
}

func (s *Store) DeleteSummary(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, summaryKey(userID)).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
