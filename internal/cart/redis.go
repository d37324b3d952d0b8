package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStore) Load(ctx context.Context, deviceID string) (State, error) {
	data, err := r.client.Get(ctx, storeKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrCartNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("redis get failed: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	state.recompute()

	return state, nil
}

// Save writes the state; an empty cart deletes the key.
func (r *RedisStore) Save(ctx context.Context, deviceID string, state State) error {
	key := storeKey(deviceID)
	if state.IsEmpty() {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func storeKey(deviceID string) string {
	return fmt.Sprintf("cart:%s", deviceID)
}
