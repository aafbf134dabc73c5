package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "student:"

// Repository persists student configurations keyed by phone number id.
type Repository interface {
	// Get returns the record for the id, or ErrNotFound.
	Get(ctx context.Context, phoneNumberID string) (Config, error)
	// Create stores a new record, failing with ErrAlreadyExists when the
	// id is already claimed. The check-then-write is atomic only at the
	// single-key level; see Service.Register for the accepted race.
	Create(ctx context.Context, cfg Config) error
	// Put overwrites the record unconditionally.
	Put(ctx context.Context, cfg Config) error
}

// RedisRepository implements Repository on a Redis key-value store,
// holding each record as a JSON string.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository builds a Redis-backed student config repository.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Get fetches and decodes the record stored under the phone number id.
func (r *RedisRepository) Get(ctx context.Context, phoneNumberID string) (Config, error) {
	raw, err := r.client.Get(ctx, keyPrefix+phoneNumberID).Result()
	if errors.Is(err, redis.Nil) {
		return Config{}, ErrNotFound
	}
	if err != nil {
		return Config{}, fmt.Errorf("get student config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode student config: %w", err)
	}
	return cfg, nil
}

// Create stores a new record with SetNX so a concurrent registration for
// the same id cannot silently overwrite the winner.
func (r *RedisRepository) Create(ctx context.Context, cfg Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode student config: %w", err)
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+cfg.PhoneNumberID, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create student config: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Put overwrites the record for the config's phone number id.
func (r *RedisRepository) Put(ctx context.Context, cfg Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode student config: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+cfg.PhoneNumberID, payload, 0).Err(); err != nil {
		return fmt.Errorf("put student config: %w", err)
	}
	return nil
}
