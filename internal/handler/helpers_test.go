package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/folio/testimonial-relay/internal/database"
	"github.com/folio/testimonial-relay/internal/mail"
	"github.com/folio/testimonial-relay/internal/metrics"
	"github.com/folio/testimonial-relay/internal/middleware"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/repository"
	"github.com/folio/testimonial-relay/internal/service"
)

// memStore backs both repositories with maps so handlers run against the
// real services.
type memStore struct {
	mu           sync.Mutex
	tokens       map[string]*model.CommentToken
	testimonials []*model.Testimonial
}

func newMemStore() *memStore {
	return &memStore{tokens: map[string]*model.CommentToken{}}
}

func (s *memStore) addToken(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = &model.CommentToken{
		ID:        uuid.NewString(),
		Token:     token,
		Language:  model.LanguageFrench,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.testimonials)
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(ctx context.Context, p model.CreateCommentTokenParams) (*model.CommentToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tokens[p.Token]; ok {
		return nil, &pq.Error{Code: "23505"}
	}
	t := &model.CommentToken{
		ID:          uuid.NewString(),
		Token:       p.Token,
		ClientName:  p.ClientName,
		ClientEmail: p.ClientEmail,
		Language:    p.Language,
		ExpiresAt:   p.ExpiresAt,
		CreatedAt:   time.Now(),
	}
	r.s.tokens[p.Token] = t
	return t, nil
}

func (r memTokens) FindByToken(ctx context.Context, token string) (*model.CommentToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.tokens[token], nil
}

func (r memTokens) Consume(ctx context.Context, token string) (*string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok || !t.IsConsumable() {
		return nil, nil
	}
	now := time.Now()
	t.Used = true
	t.UsedAt = &now
	id := t.ID
	return &id, nil
}

func (r memTokens) DeleteExpiredUnused(ctx context.Context, expiredBefore time.Time) (int64, error) {
	return 0, nil
}

func (r memTokens) WithTx(tx *sqlx.Tx) repository.CommentTokenRepository { return r }

type memTestimonials struct{ s *memStore }

func (r memTestimonials) Create(ctx context.Context, p model.CreateTestimonialParams) (*model.Testimonial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.testimonials {
		if t.TokenID != nil && *t.TokenID == p.TokenID {
			return nil, &pq.Error{Code: "23505"}
		}
	}
	tokenID := p.TokenID
	t := &model.Testimonial{
		ID:         uuid.NewString(),
		TokenID:    &tokenID,
		ClientName: p.ClientName,
		Comment:    p.Comment,
		Language:   p.Language,
		Status:     model.TestimonialStatusPending,
		CreatedAt:  time.Now().Add(time.Duration(len(r.s.testimonials)) * time.Millisecond),
	}
	r.s.testimonials = append(r.s.testimonials, t)
	return t, nil
}

func (r memTestimonials) FindByID(ctx context.Context, id string) (*model.Testimonial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.testimonials {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r memTestimonials) byStatus(status model.TestimonialStatus) []*model.Testimonial {
	var out []*model.Testimonial
	for _, t := range r.s.testimonials {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memTestimonials) ListPending(ctx context.Context, offset, limit int) (*model.PendingPage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pending := r.byStatus(model.TestimonialStatusPending)
	page := &model.PendingPage{}
	for i := offset; i < len(pending) && i < offset+limit; i++ {
		t := pending[i]
		page.Items = append(page.Items, model.PendingItem{ID: t.ID, ClientName: t.ClientName, Comment: t.Comment, CreatedAt: t.CreatedAt})
	}
	page.HasMore = len(pending) > offset+limit
	return page, nil
}

func (r memTestimonials) ListApproved(ctx context.Context, limit int) ([]model.PublicTestimonial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.PublicTestimonial
	for _, t := range r.byStatus(model.TestimonialStatusApproved) {
		if len(out) == limit {
			break
		}
		out = append(out, model.PublicTestimonial{ClientName: t.ClientName, Comment: t.Comment, CreatedAt: t.CreatedAt})
	}
	return out, nil
}

func (r memTestimonials) Approve(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.testimonials {
		if t.ID == id && t.Status == model.TestimonialStatusPending {
			now := time.Now()
			t.Status = model.TestimonialStatusApproved
			t.ApprovedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r memTestimonials) WithTx(tx *sqlx.Tx) repository.TestimonialRepository { return r }

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn database.TxFunc) error { return fn(nil) }

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

const testAdmin = "admin@x.com"

// asAdmin stands in for AdminAuthMiddleware.
func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.AdminEmailContextKey, testAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func passThrough(next http.Handler) http.Handler { return next }

type testAPI struct {
	store  *memStore
	mailer *recordingMailer
	router chi.Router
}

// newTestAPI wires the routes the way the server does. A nil mailer leaves
// invitations unconfigured.
func newTestAPI(t *testing.T, mailer *recordingMailer) *testAPI {
	t.Helper()
	store := newMemStore()
	m := metrics.New()

	testimonials := service.NewTestimonialService(passTx{}, memTokens{store}, memTestimonials{store}, m)
	var invites *service.InviteService
	if mailer != nil {
		invites = service.NewInviteService(memTokens{store}, mailer, m)
	} else {
		invites = service.NewInviteService(memTokens{store}, nil, m)
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Mount("/admin", NewAdminHandler(testimonials, invites, asAdmin).Routes())
		r.Mount("/send-invite", NewInviteHandler(invites, asAdmin, passThrough).Routes())
		r.Mount("/", NewTestimonialHandler(testimonials, passThrough).Routes())
	})

	return &testAPI{store: store, mailer: mailer, router: r}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return a.doWithHeader(t, method, path, body, nil)
}

func (a *testAPI) doWithHeader(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

const validToken = "0123456789abcdef0123456789abcdef"

func longString(n int) string {
	return strings.Repeat("a", n)
}
