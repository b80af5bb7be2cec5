package redisservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ProcessingLockKey    = Prefix + "processingLock"
	janitorLeaderLockKey = Prefix + "janitorLeaderLock"
)

// unlockScript is a Lua script for atomic check-and-delete.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`

// LockEpisodeProcessing attempts to acquire the single processing slot.
// Only one episode may be processed at a time, matching what a single
// transcription worker can handle.
// Returns:
// - acquired (bool): true if the lock was acquired.
// - lockValue (string): A unique value if acquired, to be used for safe unlocking. Empty if not acquired.
// - err (error): For Redis communication errors.
func (s *RedisService) LockEpisodeProcessing(ctx context.Context, ttl time.Duration) (acquired bool, lockValue string, err error) {
	val := uuid.New().String() // Unique value for this lock instance

	// Atomically SET the key if it Not eXists (NX), with a TTL.
	ok, err := s.rc.SetNX(ctx, ProcessingLockKey, val, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("redis SetNX error for key %s: %w", ProcessingLockKey, err)
	}

	if !ok {
		return false, "", nil // Lock not acquired (already held)
	}

	return true, val, nil // Lock acquired
}

// UnlockEpisodeProcessing safely releases the processing slot using the lockValue.
func (s *RedisService) UnlockEpisodeProcessing(ctx context.Context, lockValue string) error {
	if lockValue == "" {
		// This can happen if we attempt to unlock a lock that was never acquired
		// or if the lockValue was not properly propagated.
		return nil
	}

	deleted, err := s.unlockScriptExec.Eval(ctx, s.rc, []string{ProcessingLockKey}, lockValue).Int64()
	if errors.Is(err, redis.Nil) {
		// Key didn't exist, which is fine (lock expired or already released).
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis Eval error for unlock script on key %s: %w", ProcessingLockKey, err)
	}

	if deleted == 0 {
		return fmt.Errorf("could not release lock on key %s (it may have expired or been taken by another process)", ProcessingLockKey)
	}
	return nil
}

// IsEpisodeProcessing checks if the processing lock key exists in Redis.
// Returns true if locked, false if not locked.
// Returns an error for Redis communication issues.
func (s *RedisService) IsEpisodeProcessing(ctx context.Context) (isLocked bool, err error) {
	val, err := s.rc.Exists(ctx, ProcessingLockKey).Result() // EXISTS returns 1 if key exists, 0 if not.
	if err != nil {
		return false, fmt.Errorf("redis Exists error for key %s: %w", ProcessingLockKey, err)
	}
	return val == 1, nil
}

// AcquireJanitorLeaderLock attempts to become the janitor leader. Only the
// leader instance runs cleanup tasks.
func (s *RedisService) AcquireJanitorLeaderLock(ctx context.Context, ttl time.Duration) (acquired bool, lockValue string, err error) {
	val := uuid.New().String()

	ok, err := s.rc.SetNX(ctx, janitorLeaderLockKey, val, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("redis SetNX error for key %s: %w", janitorLeaderLockKey, err)
	}
	if !ok {
		return false, "", nil
	}

	return true, val, nil
}

// RenewJanitorLeaderLock extends the leader lock if this instance still holds it.
func (s *RedisService) RenewJanitorLeaderLock(ctx context.Context, lockValue string, ttl time.Duration) (renewed bool, err error) {
	val, err := s.rc.Get(ctx, janitorLeaderLockKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if val != lockValue {
		return false, nil
	}

	ok, err := s.rc.Expire(ctx, janitorLeaderLockKey, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseJanitorLeaderLock gives up leadership using the lockValue.
func (s *RedisService) ReleaseJanitorLeaderLock(ctx context.Context, lockValue string) error {
	if lockValue == "" {
		return nil
	}

	_, err := s.unlockScriptExec.Eval(ctx, s.rc, []string{janitorLeaderLockKey}, lockValue).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
