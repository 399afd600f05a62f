package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/access"
	"github.com/folio/testimonial-relay/internal/audit"
	apperrors "github.com/folio/testimonial-relay/internal/errors"
	"github.com/folio/testimonial-relay/internal/gotrue"
)

type contextKey string

const AdminEmailContextKey contextKey = "adminEmail"

// GetAdminEmail returns the lowercase email of the authenticated admin.
func GetAdminEmail(ctx context.Context) string {
	if email, ok := ctx.Value(AdminEmailContextKey).(string); ok {
		return email
	}
	return ""
}

// UserVerifier resolves a bearer access token to its user.
type UserVerifier interface {
	GetUser(ctx context.Context, accessToken string) (*gotrue.User, error)
}

// AdminAuthMiddleware admits requests whose bearer token belongs to an
// allowlisted admin.
type AdminAuthMiddleware struct {
	verifier  UserVerifier
	allowlist *access.Allowlist
}

func NewAdminAuthMiddleware(verifier UserVerifier, allowlist *access.Allowlist) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{verifier: verifier, allowlist: allowlist}
}

func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.verifier == nil {
			writeError(w, apperrors.Misconfigured())
			return
		}

		token := extractBearer(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized())
			return
		}

		user, err := m.verifier.GetUser(r.Context(), token)
		if err != nil {
			if !errors.Is(err, gotrue.ErrUnauthorized) {
				log.Warn().Err(err).Msg("admin auth: user lookup failed")
			}
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeError(w, apperrors.Unauthorized())
			return
		}

		email := strings.ToLower(strings.TrimSpace(user.Email))
		if !m.allowlist.Open() && !m.allowlist.IsAllowed(email) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAccessDenied, AdminEmail: email})
			writeError(w, apperrors.Forbidden())
			return
		}

		ctx := context.WithValue(r.Context(), AdminEmailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireReady answers 500 "Missing server configuration" while ready is
// false.
func RequireReady(ready bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ready {
				writeError(w, apperrors.Misconfigured())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
