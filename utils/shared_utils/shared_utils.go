package shared_utils

import (
	"context"
	"fmt"
	"time"

	"github.com/joy095/servicehub/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	MAX_VERIFICATION_ATTEMPTS    = 5
	VERIFICATION_LOCKOUT_MINUTES = 30
	VERIFICATION_ATTEMPTS_PREFIX = "cash_verification_attempts:"
)

// VerificationAttemptsRate is the wrong-code budget for one job. The window
// opens on the first failure and the counter expires with it.
var VerificationAttemptsRate = limiter.Rate{
	Period: VERIFICATION_LOCKOUT_MINUTES * time.Minute,
	Limit:  MAX_VERIFICATION_ATTEMPTS,
}

// VerificationAttemptsKey is the counter key for one job's cash verification code.
func VerificationAttemptsKey(jobID string) string {
	return VERIFICATION_ATTEMPTS_PREFIX + jobID
}

// NewLimiterStore returns a redis-backed limiter store when rdb is set and an
// in-process one otherwise.
func NewLimiterStore(prefix string, rdb *redis.Client, cleanUp time.Duration) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          prefix,
		MaxRetry:        3,
		CleanUpInterval: cleanUp,
	}
	if rdb == nil {
		return memory.NewStoreWithOptions(opts), nil
	}

	store, err := redisstore.NewStoreWithOptions(rdb, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store %s: %w", prefix, err)
	}
	return store, nil
}

// AttemptStore counts failed attempts per key inside an expiring window.
type AttemptStore interface {
	Attempts(ctx context.Context, key string) (int64, error)
	RecordFailure(ctx context.Context, key string) (int64, error)
	Clear(ctx context.Context, key string) error
}

// LimiterAttemptStore records each failure as a hit on a fixed-window limiter.
// Counts are reported up to the rate's limit.
type LimiterAttemptStore struct {
	limiter *limiter.Limiter
}

func NewLimiterAttemptStore(store limiter.Store, rate limiter.Rate) *LimiterAttemptStore {
	return &LimiterAttemptStore{limiter: limiter.New(store, rate)}
}

// NewAttemptStore shares counters through redis when rdb is set.
func NewAttemptStore(rdb *redis.Client) (*LimiterAttemptStore, error) {
	store, err := NewLimiterStore("attempts", rdb, VerificationAttemptsRate.Period)
	if err != nil {
		return nil, err
	}
	return NewLimiterAttemptStore(store, VerificationAttemptsRate), nil
}

// NewMemoryAttemptStore keeps counters in this process only.
func NewMemoryAttemptStore() *LimiterAttemptStore {
	store, _ := NewLimiterStore("attempts", nil, VerificationAttemptsRate.Period)
	return NewLimiterAttemptStore(store, VerificationAttemptsRate)
}

func used(lctx limiter.Context) int64 {
	return lctx.Limit - lctx.Remaining
}

func (s *LimiterAttemptStore) Attempts(ctx context.Context, key string) (int64, error) {
	lctx, err := s.limiter.Peek(ctx, key)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to read attempts for key %s: %v", key, err)
		return 0, fmt.Errorf("failed to read attempts: %w", err)
	}
	return used(lctx), nil
}

func (s *LimiterAttemptStore) RecordFailure(ctx context.Context, key string) (int64, error) {
	lctx, err := s.limiter.Increment(ctx, key, 1)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to record attempt for key %s: %v", key, err)
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}
	return used(lctx), nil
}

func (s *LimiterAttemptStore) Clear(ctx context.Context, key string) error {
	if _, err := s.limiter.Reset(ctx, key); err != nil {
		logger.ErrorLogger.Errorf("Failed to clear attempts for key %s: %v", key, err)
		return fmt.Errorf("failed to clear attempts: %w", err)
	}
	return nil
}
