package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"avatar-relay/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for cached retrieval results
	retrievalKeyPrefix = "relay:retrieval:"
)

// RetrievalCache stores document-index results keyed by query
type RetrievalCache interface {
	Get(ctx context.Context, key string) ([]models.RetrievalResult, bool, error)
	Set(ctx context.Context, key string, results []models.RetrievalResult, ttl time.Duration) error
}

// CacheError describes a failed cache operation
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return e.Operation + " " + e.Key + ": " + e.Err.Error()
	}
	return e.Operation + " " + e.Key + ": unknown error"
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// NewCacheError creates a CacheError
func NewCacheError(operation, key string, err error) *CacheError {
	return &CacheError{Operation: operation, Key: key, Err: err}
}

// RedisRetrievalCache implements RetrievalCache using Redis
type RedisRetrievalCache struct {
	client *redis.Client
}

// NewRedisRetrievalCache creates a new Redis-based retrieval cache
func NewRedisRetrievalCache(client *redis.Client) *RedisRetrievalCache {
	return &RedisRetrievalCache{
		client: client,
	}
}

// Get returns cached results; the bool is false on a miss
func (r *RedisRetrievalCache) Get(ctx context.Context, key string) ([]models.RetrievalResult, bool, error) {
	val, err := r.client.Get(ctx, retrievalKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, NewCacheError("get", key, err)
	}

	var results []models.RetrievalResult
	if err := json.Unmarshal(val, &results); err != nil {
		return nil, false, NewCacheError("get", key, err)
	}

	return results, true, nil
}

// Set stores results with an expiration
func (r *RedisRetrievalCache) Set(ctx context.Context, key string, results []models.RetrievalResult, ttl time.Duration) error {
	if results == nil {
		results = []models.RetrievalResult{}
	}

	data, err := json.Marshal(results)
	if err != nil {
		return NewCacheError("set", key, err)
	}

	if err := r.client.Set(ctx, retrievalKeyPrefix+key, data, ttl).Err(); err != nil {
		return NewCacheError("set", key, err)
	}

	return nil
}
