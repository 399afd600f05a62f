package admin

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/folio/testimonial-relay/internal/model"
)

type fakeAuth struct {
	mu           sync.Mutex
	session      *Session
	getErr       error
	block        bool
	signOuts     int
	magicLinks   []string
	redirects    []string
	magicErr     error
	stored       []Session
	emailOnStore string
}

func (a *fakeAuth) GetSession(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	block := a.block
	a.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.getErr != nil {
		return nil, a.getErr
	}
	if a.session == nil {
		return nil, nil
	}
	s := *a.session
	return &s, nil
}

func (a *fakeAuth) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.magicLinks = append(a.magicLinks, email)
	a.redirects = append(a.redirects, redirectTo)
	return a.magicErr
}

func (a *fakeAuth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts++
	a.session = nil
	return nil
}

func (a *fakeAuth) StoreSession(ctx context.Context, s Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stored = append(a.stored, s)
	s.Email = a.emailOnStore
	a.session = &s
	return nil
}

func (a *fakeAuth) setSession(s *Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = s
}

type fakeStore struct {
	mu          sync.Mutex
	pending     []model.PendingItem
	counted     bool
	listErr     error
	approveErr  error
	createErr   error
	listCalls   int
	listGate    chan struct{}
	approveGate chan struct{}
	created     []TokenRecord
	listStarted chan struct{}
}

func pendingItems(n int) []model.PendingItem {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	items := make([]model.PendingItem, n)
	for i := range items {
		items[i] = model.PendingItem{
			ID:         fmt.Sprintf("item-%02d", i),
			ClientName: fmt.Sprintf("Client %d", i),
			Comment:    "Nice",
			CreatedAt:  base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return items
}

func (s *fakeStore) ListPending(ctx context.Context, offset, limit int) (Page, error) {
	s.mu.Lock()
	s.listCalls++
	gate, started := s.listGate, s.listStarted
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return Page{}, s.listErr
	}
	end := offset + limit
	if end > len(s.pending) {
		end = len(s.pending)
	}
	var items []model.PendingItem
	if offset < end {
		items = append(items, s.pending[offset:end]...)
	}
	page := Page{Items: items, Counted: s.counted}
	if s.counted {
		page.HasMore = len(s.pending) > offset+limit
	}
	return page, nil
}

func (s *fakeStore) Approve(ctx context.Context, id string) error {
	s.mu.Lock()
	gate := s.approveGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.approveErr != nil {
		return s.approveErr
	}
	out := s.pending[:0]
	for _, it := range s.pending {
		if it.ID != id {
			out = append(out, it)
		}
	}
	s.pending = out
	return nil
}

func (s *fakeStore) CreateInviteToken(ctx context.Context, rec TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, rec)
	return nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

type fakeSender struct {
	mu       sync.Mutex
	err      error
	block    bool
	gate     chan struct{}
	requests []InviteRequest
	bearers  []string
}

func (f *fakeSender) SendInvite(ctx context.Context, accessToken string, req InviteRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.bearers = append(f.bearers, accessToken)
	block, gate, err := f.block, f.gate, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type notice struct {
	message string
	isError bool
	visible bool
}

type recordingView struct {
	mu            sync.Mutex
	authenticated bool
	notices       map[Target]notice
	lists         []ListView
	expiry        string
	resets        []string
	inviteBusy    bool
	loginBusy     bool
}

func newRecordingView() *recordingView {
	return &recordingView{notices: map[Target]notice{}}
}

func (v *recordingView) SetAuthenticated(a bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.authenticated = a
}

func (v *recordingView) ShowNotice(t Target, msg string, isError bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices[t] = notice{message: msg, isError: isError, visible: true}
}

func (v *recordingView) HideNotice(t Target) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices[t] = notice{}
}

func (v *recordingView) RenderPending(l ListView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists = append(v.lists, l)
}

func (v *recordingView) SetLoginBusy(b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loginBusy = b
}

func (v *recordingView) SetInviteBusy(b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inviteBusy = b
}

func (v *recordingView) SetInviteExpiry(days string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expiry = days
}

func (v *recordingView) ResetInviteForm(defaultExpiry string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resets = append(v.resets, defaultExpiry)
	v.expiry = defaultExpiry
}

func (v *recordingView) notice(t Target) notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notices[t]
}

func (v *recordingView) lastList() ListView {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.lists) == 0 {
		return ListView{}
	}
	return v.lists[len(v.lists)-1]
}

func (v *recordingView) isAuthenticated() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.authenticated
}

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

type harness struct {
	auth   *fakeAuth
	store  *fakeStore
	sender *fakeSender
	view   *recordingView
	ctrl   *Controller
}

func newHarness(opts Options) *harness {
	h := &harness{
		auth:   &fakeAuth{session: &Session{Email: "admin@x.com", AccessToken: "access-1"}},
		store:  &fakeStore{},
		sender: &fakeSender{},
		view:   newRecordingView(),
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.Random == nil {
		opts.Random = bytes.NewReader(bytes.Repeat([]byte{0xab}, 1024))
	}
	if opts.PublicSiteURL == "" && opts.Origin == "" {
		opts.PublicSiteURL = "https://site"
	}
	h.ctrl = NewController(h.auth, h.store, h.sender, h.view, opts)
	return h
}

func (h *harness) ids() []string {
	return h.ctrl.State().IDs
}

func (v *recordingView) renderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.lists)
}
