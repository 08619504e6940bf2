package lockout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keys lockout state per credential so enforcement is shared
// across service instances. The consecutive-failure counter lives in a hash;
// the rate window is a plain counter with a TTL; the hard lock is a key whose
// TTL is the lock itself.
type RedisStore struct {
	client *redis.Client
	window time.Duration
}

func NewRedis(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{client: client, window: window}
}

func failureKey(credential string) string { return "drivecert:lockout:fail:" + credential }
func windowKey(credential string) string  { return "drivecert:lockout:window:" + credential }
func hardKey(credential string) string    { return "drivecert:lockout:hard:" + credential }

func (s *RedisStore) RecordFailure(ctx context.Context, credential string, now time.Time) (*Record, error) {
	pipe := s.client.TxPipeline()
	failures := pipe.HIncrBy(ctx, failureKey(credential), "count", 1)
	pipe.HSet(ctx, failureKey(credential), "last_failure_at", now.UnixMilli())
	pipe.Expire(ctx, failureKey(credential), 24*time.Hour)
	windowCount := pipe.Incr(ctx, windowKey(credential))
	pipe.ExpireNX(ctx, windowKey(credential), s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record lockout failure: %w", err)
	}

	record := &Record{
		Credential:    credential,
		FailureCount:  int(failures.Val()),
		LastFailureAt: now,
		WindowCount:   int(windowCount.Val()),
		WindowStart:   now, // approximate; the key TTL is authoritative
	}
	if until, err := s.hardLockDeadline(ctx, credential); err == nil && until != nil {
		record.HardLockedUntil = until
	}
	return record, nil
}

func (s *RedisStore) Get(ctx context.Context, credential string) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, failureKey(credential)).Result()
	if err != nil {
		return nil, fmt.Errorf("get lockout record: %w", err)
	}

	windowCount, err := s.client.Get(ctx, windowKey(credential)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get lockout window: %w", err)
	}

	hardUntil, err := s.hardLockDeadline(ctx, credential)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 && windowCount == 0 && hardUntil == nil {
		return nil, nil
	}

	record := &Record{
		Credential:      credential,
		WindowCount:     windowCount,
		HardLockedUntil: hardUntil,
	}
	if v, ok := fields["count"]; ok {
		record.FailureCount, _ = strconv.Atoi(v)
	}
	if v, ok := fields["last_failure_at"]; ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			record.LastFailureAt = time.UnixMilli(ms)
		}
	}
	return record, nil
}

func (s *RedisStore) ResetFailures(ctx context.Context, credential string) error {
	if err := s.client.Del(ctx, failureKey(credential)).Err(); err != nil {
		return fmt.Errorf("reset lockout failures: %w", err)
	}
	return nil
}

func (s *RedisStore) SetHardLock(ctx context.Context, credential string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, hardKey(credential), until.UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("set hard lock: %w", err)
	}
	return nil
}

func (s *RedisStore) hardLockDeadline(ctx context.Context, credential string) (*time.Time, error) {
	v, err := s.client.Get(ctx, hardKey(credential)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hard lock: %w", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, nil
	}
	t := time.UnixMilli(ms)
	return &t, nil
}
