package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/admin"
	"github.com/folio/testimonial-relay/internal/gotrue"
)

// ErrNotSignedIn is returned by AccessToken when no usable session exists.
var ErrNotSignedIn = errors.New("not signed in")

// refreshMargin renews tokens slightly before they expire.
const refreshMargin = 30 * time.Second

// AuthClient is the subset of the GoTrue client the session store needs.
type AuthClient interface {
	SendMagicLink(ctx context.Context, email, redirectTo string) error
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*gotrue.Session, error)
}

type storedSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStore keeps the admin's auth session in a JSON file. It implements
// admin.Auth and serves bearer tokens to the API client.
type SessionStore struct {
	path   string
	client AuthClient
	now    func() time.Time

	mu sync.Mutex
}

func NewSessionStore(path string, client AuthClient) *SessionStore {
	return &SessionStore{path: path, client: client, now: time.Now}
}

// GetSession returns the stored session, refreshing it when the access
// token is about to expire. It returns nil without error when nobody is
// signed in or the refresh token was rejected.
func (s *SessionStore) GetSession(ctx context.Context) (*admin.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.read()
	if err != nil || stored == nil {
		return nil, err
	}

	session, err := toSession(stored)
	if err != nil {
		log.Warn().Err(err).Msg("discarding unreadable session")
		return nil, s.remove()
	}

	if session.ExpiresAt.IsZero() || s.now().Add(refreshMargin).Before(session.ExpiresAt) {
		return session, nil
	}

	if stored.RefreshToken == "" {
		return nil, s.remove()
	}

	fresh, err := s.client.Refresh(ctx, stored.RefreshToken)
	if errors.Is(err, gotrue.ErrUnauthorized) {
		return nil, s.remove()
	}
	if err != nil {
		var apiErr *gotrue.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return nil, s.remove()
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	stored = &storedSession{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
	}
	if fresh.ExpiresIn > 0 {
		stored.ExpiresAt = s.now().Add(time.Duration(fresh.ExpiresIn) * time.Second)
	}
	if err := s.write(stored); err != nil {
		return nil, err
	}
	log.Debug().Msg("session refreshed")
	return toSession(stored)
}

// StoreSession persists a session obtained from a magic link redirect.
func (s *SessionStore) StoreSession(ctx context.Context, session admin.Session) error {
	stored := &storedSession{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
	}
	if _, err := toSession(stored); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(stored)
}

func (s *SessionStore) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	return s.client.SendMagicLink(ctx, email, redirectTo)
}

// SignOut drops the local session and revokes it remotely. The file is
// removed even when revocation fails.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, readErr := s.read()
	if err := s.remove(); err != nil {
		return err
	}
	if readErr != nil || stored == nil {
		return readErr
	}

	if err := s.client.Logout(ctx, stored.AccessToken); err != nil && !errors.Is(err, gotrue.ErrUnauthorized) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// AccessToken returns a current bearer token for the admin API.
func (s *SessionStore) AccessToken(ctx context.Context) (string, error) {
	session, err := s.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrNotSignedIn
	}
	return session.AccessToken, nil
}

func (s *SessionStore) read() (*storedSession, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil || stored.AccessToken == "" {
		log.Warn().Str("path", s.path).Msg("ignoring malformed session file")
		return nil, s.remove()
	}
	return &stored, nil
}

func (s *SessionStore) write(stored *storedSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *SessionStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// toSession reads the email and expiry claims. The signature is checked by
// the auth service on every API call, not here.
func toSession(stored *storedSession) (*admin.Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(stored.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	session := &admin.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    stored.ExpiresAt,
	}
	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}
