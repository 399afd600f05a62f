package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/folio/testimonial-relay/internal/audit"
	apperrors "github.com/folio/testimonial-relay/internal/errors"
	"github.com/folio/testimonial-relay/internal/metrics"
	"github.com/folio/testimonial-relay/internal/redis"
	"github.com/folio/testimonial-relay/internal/service"
)

// Limiter checks one key against a sliding window budget.
type Limiter interface {
	CheckLimit(ctx context.Context, key string, limit service.Limit) service.Decision
}

// KeyFunc derives the rate limit key from a request. An empty key skips the
// check.
type KeyFunc func(r *http.Request) string

// ByClientIP keys on the caller address.
func ByClientIP(r *http.Request) string {
	return redis.SubmitKey(audit.ClientIP(r))
}

// ByAdminEmail keys on the authenticated admin. It must run after
// AdminAuthMiddleware.
func ByAdminEmail(r *http.Request) string {
	email := GetAdminEmail(r.Context())
	if email == "" {
		return ""
	}
	return redis.InviteKey(email)
}

type RateLimitMiddleware struct {
	limiter Limiter
	limit   service.Limit
	scope   string
	key     KeyFunc
	metrics *metrics.Metrics
}

func NewRateLimitMiddleware(limiter Limiter, limit service.Limit, scope string, key KeyFunc, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		scope:   scope,
		key:     key,
		metrics: m,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.key(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		d := m.limiter.CheckLimit(r.Context(), key, m.limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit.Max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			m.metrics.RateLimited.WithLabelValues(m.scope).Inc()
			audit.LogFromRequest(r, audit.Event{
				Type:       audit.EventRateLimitExceed,
				AdminEmail: GetAdminEmail(r.Context()),
				Resource:   m.scope,
			})
			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter()))
			writeError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
