package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/folio/testimonial-relay/internal/metrics"
	"github.com/folio/testimonial-relay/internal/service"
)

// countingLimiter allows the first n calls per key.
type countingLimiter struct {
	n    int
	seen map[string]int
}

func (c *countingLimiter) CheckLimit(ctx context.Context, key string, limit service.Limit) service.Decision {
	if c.seen == nil {
		c.seen = map[string]int{}
	}
	c.seen[key]++
	allowed := c.seen[key] <= c.n
	remaining := c.n - c.seen[key]
	if remaining < 0 {
		remaining = 0
	}
	return service.Decision{Allowed: allowed, Remaining: remaining, ResetAt: time.Now().Add(limit.Window)}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &countingLimiter{n: 2}
	m := metrics.New()
	mw := NewRateLimitMiddleware(limiter, service.Limit{Max: 2, Window: time.Minute}, "submit", ByClientIP, m)
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/submit-testimonial", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allows until the budget is spent", func(t *testing.T) {
		rec := do("192.0.2.1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

		assert.Equal(t, http.StatusOK, do("192.0.2.1").Code)

		rec = do("192.0.2.1")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Equal(t, "Too many requests. Please try again later.", errorBody(t, rec))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited.WithLabelValues("submit")))
	})

	t.Run("other addresses have their own budget", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("192.0.2.99").Code)
	})

	t.Run("keys by ip without port", func(t *testing.T) {
		_, ok := limiter.seen["submit:ip:192.0.2.1"]
		assert.True(t, ok)
	})
}

func TestByAdminEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "", ByAdminEmail(req))

	ctx := context.WithValue(req.Context(), AdminEmailContextKey, "admin@x.com")
	assert.Equal(t, "invite:admin:admin@x.com", ByAdminEmail(req.WithContext(ctx)))
}
