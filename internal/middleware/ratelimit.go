// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/terminar/core-service/internal/core"
)

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
	OnLimited  func(http.ResponseWriter, *http.Request, *redis_rate.Result)
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSON(w, http.StatusServiceUnavailable, core.Response{
				Error: &core.ErrorBody{
					Code:    "SERVICE_UNAVAILABLE",
					Message: "rate limiter unavailable",
				},
			})
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			if rl.config.OnLimited != nil {
				rl.config.OnLimited(w, r, res)
				return
			}
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err != nil {
		return rl.fallback.allow(key, rl.config.Limit)
	}
	return res, nil
}

func KeyByIP(r *http.Request) string {
	return core.RedisKey("ratelimit", "ip", clientIP(r))
}

// clientIP trusts the last X-Forwarded-For hop, which is the one appended
// by our own proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// ClientIP is the caller address recorded on sessions and logs.
func ClientIP(r *http.Request) string {
	return clientIP(r)
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return core.RedisKey("ratelimit", "user", userID)
	}
	return KeyByIP(r)
}

// KeyByRoute scopes an IP key to one route group so a noisy login client
// does not exhaust the general budget.
func KeyByRoute(group string) func(*http.Request) string {
	return func(r *http.Request) string {
		return KeyByIP(r) + ":" + group
	}
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
	h.Set(
		"RateLimit",
		fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())),
	)
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(w, core.RateLimitedError(fmt.Sprintf(
		"rate limit exceeded, retry after %d seconds",
		retryAfter,
	)))
}

const (
	localLimiterSize = 10_000
	localLimiterTTL  = 10 * time.Minute
)

// localLimiter is the in-process token bucket used while Redis is
// unreachable. Idle keys age out of the LRU.
type localLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](
			localLimiterSize, nil, localLimiterTTL,
		),
	}
}

func (l *localLimiter) bucket(key string, limit redis_rate.Limit) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}

	lim := rate.NewLimiter(rate.Limit(perSecond(limit)), limit.Burst)
	l.limiters.Add(key, lim)
	return lim
}

func perSecond(limit redis_rate.Limit) float64 {
	return float64(limit.Rate) / limit.Period.Seconds()
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	lim := l.bucket(key, limit)
	interval := time.Duration(float64(time.Second) / perSecond(limit))

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(lim.Tokens()), 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if lim.Allow() {
		res.Allowed = 1
		res.Remaining = max(int(lim.Tokens()), 0)
	} else {
		res.RetryAfter = interval
	}

	return res, nil
}

type TierConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

const defaultPlan = "basic"

// DefaultPlans keys limits by company subscription plan.
var DefaultPlans = map[string]TierConfig{
	"basic":      {RequestsPerMinute: 60, BurstSize: 10},
	"premium":    {RequestsPerMinute: 600, BurstSize: 100},
	"enterprise": {RequestsPerMinute: 6000, BurstSize: 1000},
}

// PlanRateLimiter limits per company, sized by the company's plan. It must
// run after the gate so the identity is known; anonymous callers fall back
// to the IP key and the basic plan.
func PlanRateLimiter(
	rdb *redis.Client,
	plans map[string]TierConfig,
) func(http.Handler) http.Handler {
	limiter := redis_rate.NewLimiter(rdb)
	fallback := newLocalLimiter()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plan := defaultPlan
			key := KeyByIP(r)

			if identity := GetIdentity(r.Context()); identity != nil &&
				identity.CompanyID != "" {
				key = core.RedisKey("ratelimit", "company", identity.CompanyID)
				if identity.CompanyPlan != "" {
					plan = identity.CompanyPlan
				}
			}

			cfg, ok := plans[plan]
			if !ok {
				plan = defaultPlan
				cfg = plans[defaultPlan]
			}

			limit := redis_rate.Limit{
				Rate:   cfg.RequestsPerMinute,
				Burst:  cfg.BurstSize,
				Period: time.Minute,
			}

			res, err := limiter.Allow(r.Context(), key, limit)
			if err != nil {
				//nolint:errcheck // fallback never fails
				res, _ = fallback.allow(key, limit)
			}

			w.Header().Set("X-RateLimit-Plan", plan)
			setRateLimitHeaders(w, res, limit)

			if res.Allowed == 0 {
				writeRateLimitExceeded(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

// PerWindow builds a limit over an arbitrary period.
func PerWindow(rate, burst int, period time.Duration) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}
