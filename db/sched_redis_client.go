package db

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

// SchedRedisClient struct holds the Redis client and context
type SchedRedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewSchedRedisClient wraps an initialized go-redis client.
func NewSchedRedisClient(ctx context.Context, client *redis.Client) *SchedRedisClient {
	// Test the connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Connected to Redis")

	return &SchedRedisClient{
		client: client,
		ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis
func (r *SchedRedisClient) Set(key, value string) error {
	return r.client.Set(r.ctx, key, value, 0).Err()
}

// Get retrieves the value for a given key from Redis
func (r *SchedRedisClient) Get(key string) (string, error) {
	return r.client.Get(r.ctx, key).Result()
}

// Keys lists keys matching the pattern.
func (r *SchedRedisClient) Keys(pattern string) ([]string, error) {
	return r.client.Keys(r.ctx, pattern).Result()
}

// Del removes a key.
func (r *SchedRedisClient) Del(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

func (r *SchedRedisClient) GetContext() context.Context {
	return r.ctx
}

func (r *SchedRedisClient) Ping() error {
	_, err := r.client.Ping(r.ctx).Result()
	return err
}
