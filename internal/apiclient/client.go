// Package apiclient is the console's HTTP adapter for the server's admin
// storage API and the send-invite endpoint.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/admin"
	"github.com/folio/testimonial-relay/internal/model"
)

const maxErrorBody = 4 << 10

// TokenSource yields the bearer for storage calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type Client struct {
	client  *http.Client
	baseURL string
	tokens  TokenSource
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
	}
}

type pendingPage struct {
	Items   []model.PendingItem `json:"items"`
	HasMore bool                `json:"hasMore"`
}

// ListPending implements admin.Store. The server computes hasMore, so the
// page is always counted.
func (c *Client) ListPending(ctx context.Context, offset, limit int) (admin.Page, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var page pendingPage
	if err := c.storage(ctx, http.MethodGet, "/api/admin/testimonials/pending?"+query.Encode(), nil, &page); err != nil {
		return admin.Page{}, err
	}
	return admin.Page{Items: page.Items, HasMore: page.HasMore, Counted: true}, nil
}

func (c *Client) Approve(ctx context.Context, id string) error {
	return c.storage(ctx, http.MethodPost, "/api/admin/testimonials/"+url.PathEscape(id)+"/approve", nil, nil)
}

func (c *Client) CreateInviteToken(ctx context.Context, rec admin.TokenRecord) error {
	return c.storage(ctx, http.MethodPost, "/api/admin/comment-tokens", rec, nil)
}

// SendInvite implements admin.InviteSender.
func (c *Client) SendInvite(ctx context.Context, accessToken string, req admin.InviteRequest) error {
	return c.do(ctx, http.MethodPost, "/api/send-invite", accessToken, req, nil)
}

func (c *Client) storage(ctx context.Context, method, path string, in, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	return c.do(ctx, method, path, token, in, out)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		remote := admin.ParseRemoteError(resp.StatusCode, raw)
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("detail", remote.Detail).
			Dur("elapsed", time.Since(start)).
			Msg("api request failed")
		return remote
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
