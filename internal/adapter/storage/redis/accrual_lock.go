package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AccrualLockStore implements ports.AccrualLockStore using Redis SET NX.
// Each lease covers one investment so concurrent worker sweeps never
// process the same position twice.
type AccrualLockStore struct {
	client *goredis.Client
	prefix string
}

// NewAccrualLockStore creates a new Redis-backed accrual lock store.
func NewAccrualLockStore(client *goredis.Client) *AccrualLockStore {
	return &AccrualLockStore{
		client: client,
		prefix: "accrual:lock:",
	}
}

// Acquire atomically takes the lease if free.
// Returns true if the lease is ours, false if another holder has it.
func (s *AccrualLockStore) Acquire(ctx context.Context, investmentID string, ttl time.Duration) (bool, error) {
	key := s.prefix + investmentID
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, lease held elsewhere
			return false, nil
		}
		return false, fmt.Errorf("redis accrual lock acquire: %w", err)
	}
	return result == "OK", nil
}

// Release drops the lease early so the next sweep does not wait out the TTL.
func (s *AccrualLockStore) Release(ctx context.Context, investmentID string) error {
	if err := s.client.Del(ctx, s.prefix+investmentID).Err(); err != nil {
		return fmt.Errorf("redis accrual lock release: %w", err)
	}
	return nil
}
