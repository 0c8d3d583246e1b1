package historystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Redis stores histories as JSON strings. A zero ttl keeps keys forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("historystore: redis ping: %w", err)
	}
	return client, nil
}

// Get implements port.FundHistoryStore.
func (r *Redis) Get(ctx context.Context, userID string) ([]domain.FundHistoryEntry, error) {
	raw, err := r.client.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("historystore: redis get: %w", err)
	}
	return decode(raw)
}

// Put implements port.FundHistoryStore.
func (r *Redis) Put(ctx context.Context, userID string, entries []domain.FundHistoryEntry) error {
	raw, err := encode(entries)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, Key(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("historystore: redis set: %w", err)
	}
	return nil
}

// Delete implements port.FundHistoryStore.
func (r *Redis) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("historystore: redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity, used by the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
