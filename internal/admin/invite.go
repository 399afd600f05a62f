package admin

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/validate"
)

// isoMillis matches the millisecond UTC timestamps the server and the
// comment form exchange.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// InviteForm is the raw operator input.
type InviteForm struct {
	Name        string
	Email       string
	Language    string
	ExpiresDays string
}

type inviteOutcome struct {
	notice    string
	isError   bool
	resetForm bool
	// interrupted is set when a step failed because its context ended.
	interrupted bool
}

// SubmitInvite creates an invitation token and emails the comment link.
// Only one submission runs at a time. The whole flow is bounded by the
// watchdog: when it fires the form is released with a retry notice and the
// abandoned flow's outcome is dropped.
func (c *Controller) SubmitInvite(ctx context.Context, form InviteForm) {
	c.mu.Lock()
	if c.inviting {
		c.mu.Unlock()
		return
	}
	c.inviting = true
	c.mu.Unlock()

	c.view.HideNotice(TargetInvite)
	c.view.SetInviteBusy(true)

	wctx, cancel := context.WithTimeout(ctx, c.opts.WatchdogTimeout)
	defer cancel()

	done := make(chan inviteOutcome, 1)
	go func() { done <- c.runInvite(wctx, form) }()

	blocked := inviteOutcome{notice: c.t(i18n.InviteBlocked), isError: true}
	var out inviteOutcome
	select {
	case out = <-done:
		if out.interrupted && errors.Is(wctx.Err(), context.DeadlineExceeded) {
			out = blocked
		}
	case <-wctx.Done():
		select {
		case out = <-done:
			if out.interrupted {
				out = blocked
			}
		default:
			log.Warn().Dur("watchdog", c.opts.WatchdogTimeout).Msg("invite flow abandoned")
			out = blocked
		}
	}

	c.mu.Lock()
	c.inviting = false
	c.mu.Unlock()
	c.view.SetInviteBusy(false)

	if out.notice != "" {
		c.view.ShowNotice(TargetInvite, out.notice, out.isError)
	}
	if out.resetForm {
		c.view.ResetInviteForm(DefaultExpiryDays)
	}
}

func (c *Controller) runInvite(ctx context.Context, form InviteForm) inviteOutcome {
	session := c.CheckAdmin(ctx)
	if session == nil {
		return inviteOutcome{interrupted: ctx.Err() != nil}
	}

	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	lang := i18n.Normalize(form.Language)
	days := ClampDays(form.ExpiresDays, MinExpiryDays, MaxExpiryDays)
	c.view.SetInviteExpiry(strconv.Itoa(days))

	if name == "" || email == "" {
		return c.failure(i18n.MissingInformation)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return c.failure(i18n.NameTooLong, strconv.Itoa(MaxNameLength))
	}
	if !validate.IsBasicEmail(email) {
		return c.failure(i18n.InvalidEmail)
	}

	token, err := generateToken(c.opts.Random)
	if err != nil {
		log.Error().Err(err).Msg("token generation failed")
		return c.failure(i18n.TokenCreateFailed)
	}
	expiresAt := c.opts.Now().AddDate(0, 0, days).UTC().Format(isoMillis)

	err = doWithTimeout(ctx, c.opts.RequestTimeout, func(ctx context.Context) error {
		return c.store.CreateInviteToken(ctx, TokenRecord{
			Token:       token,
			ClientName:  name,
			ClientEmail: email,
			Language:    string(lang),
			ExpiresAt:   expiresAt,
		})
	})
	if err != nil {
		log.Warn().Err(err).Msg("create invite token failed")
		out := c.failure(i18n.TokenCreateFailed)
		if detail := compactError(errorDetail(err), maxDetailLength); detail != "" {
			out = c.failure(i18n.TokenCreateFailedFor, detail)
		}
		out.interrupted = ctx.Err() != nil
		return out
	}

	commentURL, err := c.commentURL(token, lang)
	if err != nil {
		log.Error().Err(err).Msg("build comment url failed")
		return c.failure(i18n.InviteNotSent, compactError(err.Error(), maxDetailLength))
	}

	err = doWithTimeout(ctx, c.opts.RequestTimeout, func(ctx context.Context) error {
		return c.sender.SendInvite(ctx, session.AccessToken, InviteRequest{
			Email:      email,
			Name:       name,
			Language:   string(lang),
			Token:      token,
			CommentURL: commentURL,
			ExpiresAt:  expiresAt,
		})
	})
	if err != nil {
		log.Warn().Err(err).Msg("send invite failed")
		var remote *RemoteError
		out := c.failure(i18n.InviteNetworkError)
		if errors.As(err, &remote) {
			out = c.failure(i18n.InviteNotSent, inviteFailureReason(c.opts.Language, remote))
		}
		out.interrupted = ctx.Err() != nil
		return out
	}

	return inviteOutcome{
		notice:    c.t(i18n.InviteSent, commentURL),
		resetForm: true,
	}
}

func (c *Controller) failure(key string, args ...any) inviteOutcome {
	return inviteOutcome{notice: c.t(key, args...), isError: true}
}

// commentURL builds <base>/commenter.html?token=<t>&lang=<l>, token first.
func (c *Controller) commentURL(token string, lang model.Language) (string, error) {
	base := c.opts.PublicSiteURL
	if base == "" {
		base = c.opts.Origin
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("site url %q is not absolute", base)
	}

	u = u.ResolveReference(&url.URL{Path: "/commenter.html"})
	u.RawQuery = "token=" + url.QueryEscape(token) + "&lang=" + url.QueryEscape(string(lang))
	u.Fragment = ""
	return u.String(), nil
}

// errorDetail prefers the server's message over the transport wrapping.
func errorDetail(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		if remote.Detail != "" {
			return remote.Detail
		}
		return strconv.Itoa(remote.Status)
	}
	return err.Error()
}

func generateToken(r io.Reader) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ClampDays reads a leading integer the way a lenient form field does and
// bounds it to [min, max]. Input without a leading integer yields min.
func ClampDays(value string, min, max int) int {
	s := strings.TrimLeft(value, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			break
		}
		digits++
		if n <= max {
			n = n*10 + int(ch-'0')
		}
	}
	if digits == 0 {
		return min
	}
	if neg {
		n = -n
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
