package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists records in Redis as JSON values indexed by a key set.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        // Redis server address (e.g., "localhost:6379")
	Password string        // Redis password (if any)
	DB       int           // Redis database number
	Prefix   string        // Key prefix for namespacing
	TTL      time.Duration // Time-to-live for records (0 means no expiration)
}

// NewRedisStore creates a Redis-backed prior-research store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "citekit:research:",
		}
	}
	if config.Prefix == "" {
		config.Prefix = "citekit:research:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Save stores the record and registers its key in the index set.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	cp := *rec
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("research-%d", time.Now().UnixNano())
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	key := s.prefix + cp.ID
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store record in Redis: %w", err)
	}
	if err := s.client.SAdd(ctx, s.prefix+"index", key).Err(); err != nil {
		return fmt.Errorf("index record key: %w", err)
	}
	return nil
}

// Search loads all indexed records and scores them client-side. Fine for
// the archive sizes this store sees; a dedicated search index would be the
// next step if archives grow large.
func (s *RedisStore) Search(ctx context.Context, query string, limit int) ([]ScoredRecord, error) {
	keys, err := s.client.SMembers(ctx, s.prefix+"index").Result()
	if err != nil {
		return nil, fmt.Errorf("list record keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	var scored []ScoredRecord
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue // expired; leave the stale index entry for TTL cleanup
		}
		if err != nil {
			return nil, fmt.Errorf("load record %s: %w", key, err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		score := scoreRecord(query, &rec)
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredRecord{Record: &rec, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.ID < scored[j].Record.ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
