package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/i18n"
)

var ErrNoAccessToken = errors.New("redirect carries no access token")

// Init runs once at startup: guard, first load, then polling.
func (c *Controller) Init(ctx context.Context) {
	c.OnAuthStateChange(ctx)
}

// OnAuthStateChange re-evaluates the session after the auth collaborator
// reports a change.
func (c *Controller) OnAuthStateChange(ctx context.Context) *Session {
	s := c.CheckAdmin(ctx)
	if s == nil {
		return nil
	}
	c.Load(ctx, LoadOptions{Reset: true})
	c.StartPolling(ctx)
	return s
}

// SignIn requests a magic link for email. Emails outside the allowlist are
// refused locally.
func (c *Controller) SignIn(ctx context.Context, email string) {
	c.mu.Lock()
	if c.loggingIn {
		c.mu.Unlock()
		return
	}
	c.loggingIn = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loggingIn = false
		c.mu.Unlock()
	}()

	c.view.HideNotice(TargetAuth)

	email = strings.TrimSpace(email)
	if !c.allow.IsAllowed(email) {
		c.notify(TargetAuth, i18n.EmailNotAllowed, true)
		return
	}

	c.view.SetLoginBusy(true)

	err := doWithTimeout(ctx, c.opts.RequestTimeout, func(ctx context.Context) error {
		return c.auth.SendMagicLink(ctx, email, c.opts.RedirectURL)
	})

	c.view.SetLoginBusy(false)

	if err != nil {
		log.Warn().Err(err).Msg("magic link request failed")
		c.notify(TargetAuth, i18n.SignInFailed, true)
		return
	}
	c.notify(TargetAuth, i18n.SignInLinkSent, false)
}

// CompleteSignIn stores the session carried by a magic link redirect (in
// its fragment or query) and then behaves like OnAuthStateChange.
func (c *Controller) CompleteSignIn(ctx context.Context, redirectURL string) error {
	s, err := parseRedirect(redirectURL, c.opts.Now())
	if err != nil {
		c.notify(TargetAuth, i18n.SignInFailed, true)
		return err
	}

	if err := doWithTimeout(ctx, c.opts.SessionTimeout, func(ctx context.Context) error {
		return c.auth.StoreSession(ctx, *s)
	}); err != nil {
		c.notify(TargetAuth, i18n.SignInFailed, true)
		return fmt.Errorf("store session: %w", err)
	}

	if admin := c.OnAuthStateChange(ctx); admin != nil {
		c.notify(TargetAuth, i18n.SignInCompleted, false, admin.Email)
	}
	return nil
}

// SignOut ends the session locally even when the auth collaborator cannot
// be reached.
func (c *Controller) SignOut(ctx context.Context) {
	if err := doWithTimeout(ctx, c.opts.SessionTimeout, c.auth.SignOut); err != nil {
		log.Warn().Err(err).Msg("remote sign out failed")
	}
	c.loseSession()
	c.notify(TargetAuth, i18n.SignedOut, false)
}

func parseRedirect(raw string, now time.Time) (*Session, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redirect: %w", err)
	}

	values, err := url.ParseQuery(u.Fragment)
	if err != nil || (values.Get("access_token") == "" && values.Get("error_description") == "") {
		values = u.Query()
	}

	if desc := values.Get("error_description"); desc != "" {
		return nil, fmt.Errorf("sign in rejected: %s", desc)
	}
	token := values.Get("access_token")
	if token == "" {
		return nil, ErrNoAccessToken
	}

	s := &Session{
		AccessToken:  token,
		RefreshToken: values.Get("refresh_token"),
	}
	if secs, err := strconv.Atoi(values.Get("expires_in")); err == nil && secs > 0 {
		s.ExpiresAt = now.Add(time.Duration(secs) * time.Second)
	}
	return s, nil
}
