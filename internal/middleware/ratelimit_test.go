// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func hit(h http.Handler, ip string, id *Identity) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ip + ":4000"
	if id != nil {
		r = r.WithContext(WithIdentity(r.Context(), id))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(newRedis(t), RateLimitConfig{Limit: PerMinute(1, 1)})
	h := rl.Handler(ok())

	first := hit(h, "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := hit(h, "10.0.0.1", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	other := hit(h, "10.0.0.2", nil)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiterBypass(t *testing.T) {
	rl := NewRateLimiter(newRedis(t), RateLimitConfig{
		Limit:      PerMinute(1, 1),
		BypassFunc: func(*http.Request) bool { return true },
	})
	h := rl.Handler(ok())

	for range 3 {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1", nil).Code)
	}
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewRateLimiter(rdb, RateLimitConfig{Limit: PerMinute(1, 1)}).Handler(ok())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.9", nil).Code)
}

func TestKeyByRouteSeparatesBudgets(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4000"

	assert.Equal(t, "ratelimit:ip:10.0.0.1", KeyByIP(r))
	assert.Equal(t, "ratelimit:ip:10.0.0.1:auth", KeyByRoute("auth")(r))

	r.Header.Set("X-Forwarded-For", "1.1.1.1, 192.168.0.7")
	assert.Equal(t, "192.168.0.7", ClientIP(r))
}

func TestPlanRateLimiterUsesCompanyPlan(t *testing.T) {
	plans := map[string]TierConfig{
		"basic":   {RequestsPerMinute: 1, BurstSize: 1},
		"premium": {RequestsPerMinute: 5, BurstSize: 5},
	}
	h := PlanRateLimiter(newRedis(t), plans)(ok())

	premium := &Identity{CompanyID: "c-1", CompanyPlan: "premium"}
	for range 5 {
		rec := hit(h, "10.0.0.1", premium)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "premium", rec.Header().Get("X-RateLimit-Plan"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1", premium).Code)

	unknownPlan := &Identity{CompanyID: "c-2", CompanyPlan: "platinum"}
	rec := hit(h, "10.0.0.1", unknownPlan)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "basic", rec.Header().Get("X-RateLimit-Plan"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1", unknownPlan).Code)
}

func TestLocalLimiterKeepsBucketsPerKey(t *testing.T) {
	l := newLocalLimiter()
	limit := redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute}

	res, err := l.allow("a", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)

	res, err = l.allow("a", limit)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	res, err = l.allow("b", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)
	assert.Equal(t, 2, l.limiters.Len())
}

func TestKeyByUserGivesEachAccountItsOwnBudget(t *testing.T) {
	rl := NewRateLimiter(newRedis(t), RateLimitConfig{
		Limit:   PerMinute(1, 1),
		KeyFunc: KeyByUser,
	})
	h := rl.Handler(ok())

	ana := &Identity{UserID: "u-1"}
	ben := &Identity{UserID: "u-2"}

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1", ana).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1", ana).Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1", ben).Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.3:4000"
	assert.Equal(t, "ratelimit:ip:10.0.0.3", KeyByUser(r))
}
