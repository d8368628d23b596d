package cluster

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the Redis set holding supervisor addresses.
const DefaultRedisKey = "schedmesh:supervisors"

// Locator lists the supervisor addresses of a cluster.
type Locator interface {
	Supervisors(ctx context.Context) ([]string, error)
}

// StaticLocator is a fixed list of supervisor addresses.
type StaticLocator []string

// Supervisors returns a sorted copy of the configured addresses.
func (s StaticLocator) Supervisors(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out, nil
}

// RedisLocator keeps supervisor membership in a Redis set so every client of
// the cluster observes the same supervisor list.
type RedisLocator struct {
	client redis.UniversalClient
	key    string
}

// NewRedisLocator creates a locator over the given client. An empty key uses
// DefaultRedisKey.
func NewRedisLocator(client redis.UniversalClient, key string) *RedisLocator {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLocator{client: client, key: key}
}

// Register adds a supervisor address to the membership set.
func (l *RedisLocator) Register(ctx context.Context, address string) error {
	if err := l.client.SAdd(ctx, l.key, address).Err(); err != nil {
		return fmt.Errorf("register supervisor %s: %w", address, err)
	}
	return nil
}

// Unregister removes a supervisor address from the membership set.
func (l *RedisLocator) Unregister(ctx context.Context, address string) error {
	if err := l.client.SRem(ctx, l.key, address).Err(); err != nil {
		return fmt.Errorf("unregister supervisor %s: %w", address, err)
	}
	return nil
}

// Supervisors returns the sorted membership set.
func (l *RedisLocator) Supervisors(ctx context.Context) ([]string, error) {
	members, err := l.client.SMembers(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list supervisors: %w", err)
	}
	sort.Strings(members)
	return members, nil
}
