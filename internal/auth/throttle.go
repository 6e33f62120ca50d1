// AngelaMos | 2026
// throttle.go

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terminar/core-service/internal/core"
)

func failureKey(subject string) string { return core.RedisKey("login", "fail", subject) }

func lockKey(subject string) string { return core.RedisKey("login", "lock", subject) }

// LoginThrottle locks an (email, company slug) pair after too many failed
// logins inside the window. Redis errors fail open.
type LoginThrottle struct {
	rdb         *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

func NewLoginThrottle(
	rdb *redis.Client,
	maxAttempts int,
	window time.Duration,
	logger *slog.Logger,
) *LoginThrottle {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoginThrottle{
		rdb:         rdb,
		maxAttempts: int64(maxAttempts),
		window:      window,
		logger:      logger,
	}
}

func throttleSubject(email, companySlug string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + companySlug
}

// Locked returns whether the pair is locked and for how much longer.
func (t *LoginThrottle) Locked(
	ctx context.Context,
	email, companySlug string,
) (bool, time.Duration) {
	if t == nil || t.rdb == nil {
		return false, 0
	}

	ttl, err := t.rdb.TTL(ctx, lockKey(throttleSubject(email, companySlug))).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", "error", err)
		return false, 0
	}

	// go-redis reports a missing key as -2 and no expiry as -1.
	if ttl == -2 {
		return false, 0
	}
	if ttl < 0 {
		return true, t.window
	}

	return true, ttl
}

// RecordFailure counts one failed attempt and reports whether the pair is
// now locked.
func (t *LoginThrottle) RecordFailure(
	ctx context.Context,
	email, companySlug string,
) bool {
	if t == nil || t.rdb == nil {
		return false
	}

	subject := throttleSubject(email, companySlug)
	failKey := failureKey(subject)

	n, err := t.rdb.Incr(ctx, failKey).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", "error", err)
		return false
	}

	if n == 1 {
		if err := t.rdb.Expire(ctx, failKey, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expire failed", "error", err)
		}
	}

	if n < t.maxAttempts {
		return false
	}

	pipe := t.rdb.TxPipeline()
	pipe.Set(ctx, lockKey(subject), "1", t.window)
	pipe.Del(ctx, failKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		t.logger.Warn("login throttle lock failed", "error", err)
		return false
	}

	t.logger.Warn("login locked after repeated failures",
		"company_slug", companySlug,
		"window", t.window,
	)

	return true
}

func (t *LoginThrottle) Reset(ctx context.Context, email, companySlug string) {
	if t == nil || t.rdb == nil {
		return
	}

	subject := throttleSubject(email, companySlug)
	if err := t.rdb.Del(ctx, failureKey(subject), lockKey(subject)).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", "error", err)
	}
}
