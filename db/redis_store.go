package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"roster-dashboard-go/config"
	"roster-dashboard-go/dashboard"
)

const (
	sessionsKey       = "dashboard:sessions" // Set: live session IDs
	sessionInfoPrefix = "dashboard:session:" // Hash prefix: dashboard:session:{id} -> state + updated
)

// RedisStore keeps dashboard session state in Redis so several dashboard
// processes can serve the same browser.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a new RedisStore
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		Client: client,
		TTL:    ttl,
		logger: logger.Named("redis"),
	}
}

// Helper to generate session key
func getSessionKey(id string) string {
	return sessionInfoPrefix + id
}

// Load implements dashboard.Store
func (s *RedisStore) Load(ctx context.Context, id string) (*dashboard.State, error) {
	data, err := s.Client.HGetAll(ctx, getSessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dashboard.NewState(), nil
		}
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}
	if len(data) == 0 {
		return dashboard.NewState(), nil // Not found or expired
	}

	st := dashboard.NewState()
	if err := json.Unmarshal([]byte(data["state"]), st); err != nil {
		// A state written by an incompatible version starts over
		s.logger.Warn("Discarding unreadable session", zap.String("session", id), zap.Error(err))
		return dashboard.NewState(), nil
	}
	return st, nil
}

// Save implements dashboard.Store
func (s *RedisStore) Save(ctx context.Context, id string, st *dashboard.State) error {
	encoded, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	key := getSessionKey(id)
	pipe := s.Client.Pipeline()
	pipe.SAdd(ctx, sessionsKey, id)
	pipe.HSet(ctx, key, map[string]interface{}{
		"state":   string(encoded),
		"updated": time.Now().Unix(),
	})
	if s.TTL > 0 {
		pipe.Expire(ctx, key, s.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	return nil
}

// PruneSessions removes IDs from the session set whose hash has expired.
func (s *RedisStore) PruneSessions(ctx context.Context) (int, error) {
	ids, err := s.Client.SMembers(ctx, sessionsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get session IDs from Redis: %w", err)
	}

	pruned := 0
	for _, id := range ids {
		n, err := s.Client.Exists(ctx, getSessionKey(id)).Result()
		if err != nil {
			s.logger.Warn("Error checking session", zap.String("session", id), zap.Error(err))
			continue
		}
		if n > 0 {
			continue
		}
		if err := s.Client.SRem(ctx, sessionsKey, id).Err(); err != nil {
			s.logger.Warn("Error pruning session", zap.String("session", id), zap.Error(err))
			continue
		}
		pruned++
	}
	return pruned, nil
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
