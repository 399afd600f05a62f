package admin

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/i18n"
)

// CheckAdmin returns the current session when it belongs to an allowed
// admin. Every other outcome reverts to the signed-out view and returns nil.
func (c *Controller) CheckAdmin(ctx context.Context) *Session {
	s, err := withTimeout(ctx, c.opts.SessionTimeout, c.auth.GetSession)
	if err != nil {
		log.Warn().Err(err).Msg("session check failed")
	}
	if err != nil || s == nil {
		c.loseSession()
		return nil
	}

	if !c.allow.IsAllowed(s.Email) {
		log.Warn().Str("email", s.Email).Msg("signed-in email is not an admin")
		if err := doWithTimeout(ctx, c.opts.SessionTimeout, c.auth.SignOut); err != nil {
			log.Warn().Err(err).Msg("sign out after access denied failed")
		}
		c.loseSession()
		c.notify(TargetAuth, i18n.AccessDenied, true)
		return nil
	}

	c.view.SetAuthenticated(true)
	return s
}

func (c *Controller) loseSession() {
	c.StopPolling()
	c.mu.Lock()
	c.discardCursor()
	c.mu.Unlock()
	c.view.SetAuthenticated(false)
}
