package admin

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/folio/testimonial-relay/internal/access"
	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
)

const (
	PageSize              = 20
	DefaultExpiryDays     = "7"
	MinExpiryDays         = 1
	MaxExpiryDays         = 30
	MaxNameLength         = 120
	tokenBytes            = 16
	defaultSessionTimeout = 8 * time.Second
	defaultRequestTimeout = 15 * time.Second
	defaultWatchdog       = 30 * time.Second
	defaultPollInterval   = 45 * time.Second
)

type Options struct {
	// Allowlist of admin emails; empty admits any signed-in email.
	Allowlist []string
	// Language of notices and labels.
	Language model.Language
	// PublicSiteURL is the base of comment links; Origin is used when it is
	// empty.
	PublicSiteURL string
	Origin        string
	// RedirectURL is where the magic link sends the admin back to.
	RedirectURL string

	SessionTimeout  time.Duration
	RequestTimeout  time.Duration
	WatchdogTimeout time.Duration
	PollInterval    time.Duration

	Now    func() time.Time
	Random io.Reader
}

func (o *Options) applyDefaults() {
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = defaultSessionTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.WatchdogTimeout <= 0 {
		o.WatchdogTimeout = defaultWatchdog
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if !o.Language.Valid() {
		o.Language = model.DefaultLanguage
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Random == nil {
		o.Random = rand.Reader
	}
}

// Controller owns one admin session lifecycle. All methods are safe for
// concurrent use; View callbacks run outside the lock.
type Controller struct {
	auth   Auth
	store  Store
	sender InviteSender
	view   View
	allow  *access.Allowlist
	opts   Options

	mu        sync.Mutex
	items     []model.PendingItem
	offset    int
	hasMore   bool
	loading   bool
	approving map[string]struct{}
	// generation changes whenever the cursor is discarded so that results of
	// calls started before are not applied to the new state.
	generation uint64
	loggingIn  bool
	inviting   bool
	pollDone   chan struct{}
}

func NewController(auth Auth, store Store, sender InviteSender, view View, opts Options) *Controller {
	opts.applyDefaults()
	return &Controller{
		auth:      auth,
		store:     store,
		sender:    sender,
		view:      view,
		allow:     access.NewAllowlist(opts.Allowlist),
		opts:      opts,
		approving: make(map[string]struct{}),
	}
}

// CursorState is a copy of the pending list bookkeeping.
type CursorState struct {
	IDs       []string
	Offset    int
	HasMore   bool
	Loading   bool
	Approving []string
}

func (c *Controller) State() CursorState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CursorState{Offset: c.offset, HasMore: c.hasMore, Loading: c.loading}
	for _, it := range c.items {
		s.IDs = append(s.IDs, it.ID)
	}
	for id := range c.approving {
		s.Approving = append(s.Approving, id)
	}
	return s
}

func (c *Controller) t(key string, args ...any) string {
	return i18n.T(c.opts.Language, key, args...)
}

func (c *Controller) notify(target Target, key string, isError bool, args ...any) {
	c.view.ShowNotice(target, c.t(key, args...), isError)
}

// discardCursor drops the pending list. Callers hold c.mu.
func (c *Controller) discardCursor() {
	c.items = nil
	c.offset = 0
	c.hasMore = false
	c.loading = false
	c.approving = make(map[string]struct{})
	c.generation++
}

// listView renders the cursor. Callers hold c.mu.
func (c *Controller) listView() ListView {
	lv := ListView{
		LoadMore: LoadMoreButton{
			Visible:  c.hasMore && len(c.items) > 0,
			Disabled: c.loading,
			Label:    c.t(i18n.LoadMore),
		},
	}
	if c.loading {
		lv.LoadMore.Label = c.t(i18n.Loading)
	}

	if len(c.items) == 0 {
		lv.Placeholder = c.t(i18n.PendingEmpty)
		return lv
	}

	lv.Cards = make([]Card, 0, len(c.items))
	for _, it := range c.items {
		name := it.ClientName
		if name == "" {
			name = c.t(i18n.DefaultClientName)
		}
		_, busy := c.approving[it.ID]
		lv.Cards = append(lv.Cards, Card{
			ID:              it.ID,
			Comment:         it.Comment,
			Name:            name,
			Badge:           c.t(i18n.PendingBadge),
			ApproveLabel:    c.t(i18n.ApproveAction),
			ApproveDisabled: busy,
			CreatedAt:       it.CreatedAt,
		})
	}
	return lv
}

func (c *Controller) render() {
	c.mu.Lock()
	lv := c.listView()
	c.mu.Unlock()
	c.view.RenderPending(lv)
}
