package console

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/testimonial-relay/internal/admin"
	"github.com/folio/testimonial-relay/internal/gotrue"
)

type fakeAuthClient struct {
	refreshed  *gotrue.Session
	refreshErr error
	logoutErr  error
	loggedOut  []string
	links      []string
}

func (f *fakeAuthClient) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	f.links = append(f.links, email+" "+redirectTo)
	return nil
}

func (f *fakeAuthClient) Logout(ctx context.Context, accessToken string) error {
	f.loggedOut = append(f.loggedOut, accessToken)
	return f.logoutErr
}

func (f *fakeAuthClient) Refresh(ctx context.Context, refreshToken string) (*gotrue.Session, error) {
	return f.refreshed, f.refreshErr
}

var epoch = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func accessToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newStore(t *testing.T, client AuthClient) *SessionStore {
	t.Helper()
	s := NewSessionStore(filepath.Join(t.TempDir(), "nested", "session.json"), client)
	s.now = func() time.Time { return epoch }
	return s
}

func TestSessionStore_NoSession(t *testing.T) {
	s := newStore(t, &fakeAuthClient{})

	session, err := s.GetSession(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, session)

	_, err = s.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSessionStore_StoreAndGet(t *testing.T) {
	s := newStore(t, &fakeAuthClient{})
	tok := accessToken(t, "admin@x.com", epoch.Add(time.Hour))

	require.NoError(t, s.StoreSession(context.Background(), admin.Session{AccessToken: tok, RefreshToken: "r1"}))

	info, err := os.Stat(s.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	session, err := s.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "admin@x.com", session.Email)
	assert.Equal(t, "r1", session.RefreshToken)
	assert.True(t, session.ExpiresAt.Equal(epoch.Add(time.Hour)))

	bearer, err := s.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, bearer)
}

func TestSessionStore_RejectsGarbageToken(t *testing.T) {
	s := newStore(t, &fakeAuthClient{})
	err := s.StoreSession(context.Background(), admin.Session{AccessToken: "not-a-jwt"})
	assert.Error(t, err)
}

func TestSessionStore_Refresh(t *testing.T) {
	t.Run("expired token is refreshed and persisted", func(t *testing.T) {
		fresh := accessToken(t, "admin@x.com", epoch.Add(time.Hour))
		client := &fakeAuthClient{refreshed: &gotrue.Session{AccessToken: fresh, RefreshToken: "r2", ExpiresIn: 3600}}
		s := newStore(t, client)
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{
			AccessToken:  accessToken(t, "admin@x.com", epoch.Add(-time.Minute)),
			RefreshToken: "r1",
		}))

		session, err := s.GetSession(context.Background())
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, fresh, session.AccessToken)
		assert.Equal(t, "r2", session.RefreshToken)

		again, err := s.GetSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fresh, again.AccessToken)
	})

	t.Run("rejected refresh signs out", func(t *testing.T) {
		client := &fakeAuthClient{refreshErr: gotrue.ErrUnauthorized}
		s := newStore(t, client)
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{
			AccessToken:  accessToken(t, "admin@x.com", epoch.Add(-time.Minute)),
			RefreshToken: "r1",
		}))

		session, err := s.GetSession(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, session)
		assert.NoFileExists(t, s.path)
	})

	t.Run("unreachable auth service is an error", func(t *testing.T) {
		client := &fakeAuthClient{refreshErr: errors.New("dial tcp: refused")}
		s := newStore(t, client)
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{
			AccessToken:  accessToken(t, "admin@x.com", epoch.Add(-time.Minute)),
			RefreshToken: "r1",
		}))

		_, err := s.GetSession(context.Background())
		assert.Error(t, err)
		assert.FileExists(t, s.path)
	})

	t.Run("expired without refresh token is no session", func(t *testing.T) {
		s := newStore(t, &fakeAuthClient{})
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{
			AccessToken: accessToken(t, "admin@x.com", epoch.Add(-time.Minute)),
		}))

		session, err := s.GetSession(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestSessionStore_SignOut(t *testing.T) {
	t.Run("revokes and removes", func(t *testing.T) {
		client := &fakeAuthClient{}
		s := newStore(t, client)
		tok := accessToken(t, "admin@x.com", epoch.Add(time.Hour))
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{AccessToken: tok}))

		require.NoError(t, s.SignOut(context.Background()))
		assert.Equal(t, []string{tok}, client.loggedOut)
		assert.NoFileExists(t, s.path)
	})

	t.Run("file is removed even when revocation fails", func(t *testing.T) {
		client := &fakeAuthClient{logoutErr: errors.New("timeout")}
		s := newStore(t, client)
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{AccessToken: accessToken(t, "a@x.com", epoch.Add(time.Hour))}))

		assert.Error(t, s.SignOut(context.Background()))
		assert.NoFileExists(t, s.path)
	})

	t.Run("already revoked is fine", func(t *testing.T) {
		client := &fakeAuthClient{logoutErr: gotrue.ErrUnauthorized}
		s := newStore(t, client)
		require.NoError(t, s.StoreSession(context.Background(), admin.Session{AccessToken: accessToken(t, "a@x.com", epoch.Add(time.Hour))}))

		assert.NoError(t, s.SignOut(context.Background()))
	})

	t.Run("nobody signed in", func(t *testing.T) {
		client := &fakeAuthClient{}
		s := newStore(t, client)
		assert.NoError(t, s.SignOut(context.Background()))
		assert.Empty(t, client.loggedOut)
	})
}

func TestSessionStore_MalformedFile(t *testing.T) {
	s := newStore(t, &fakeAuthClient{})
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o700))
	require.NoError(t, os.WriteFile(s.path, []byte("{"), 0o600))

	session, err := s.GetSession(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, session)
	assert.NoFileExists(t, s.path)
}
