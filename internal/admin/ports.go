// Package admin holds the headless admin console controller: session
// guard, pending list cursor, invite and approval workflows, and the
// polling scheduler. Platform adapters drive it through named commands and
// receive state through the View port.
package admin

import (
	"context"
	"time"

	"github.com/folio/testimonial-relay/internal/model"
)

// Session is the signed-in visitor as seen by the console.
type Session struct {
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Auth is the auth collaborator. GetSession returns nil without error when
// nobody is signed in.
type Auth interface {
	GetSession(ctx context.Context) (*Session, error)
	SendMagicLink(ctx context.Context, email, redirectTo string) error
	SignOut(ctx context.Context) error
	StoreSession(ctx context.Context, s Session) error
}

// Page is one window of the pending list. Counted reports whether HasMore
// came from the store rather than being left for the caller to infer.
type Page struct {
	Items   []model.PendingItem
	HasMore bool
	Counted bool
}

// TokenRecord is a new invitation token as written to the store.
type TokenRecord struct {
	Token       string `json:"token"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	Language    string `json:"language"`
	ExpiresAt   string `json:"expiresAt"`
}

// Store is the storage collaborator.
type Store interface {
	ListPending(ctx context.Context, offset, limit int) (Page, error)
	Approve(ctx context.Context, id string) error
	CreateInviteToken(ctx context.Context, rec TokenRecord) error
}

// InviteRequest is the send-invite payload.
type InviteRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Language   string `json:"language"`
	Token      string `json:"token"`
	CommentURL string `json:"commentUrl"`
	ExpiresAt  string `json:"expiresAt"`
}

// InviteSender calls the send-invite endpoint. A non-2xx answer is reported
// as *RemoteError; any other error is treated as a network failure.
type InviteSender interface {
	SendInvite(ctx context.Context, accessToken string, req InviteRequest) error
}

// Target names a notice area.
type Target string

const (
	TargetAuth   Target = "auth"
	TargetInvite Target = "invite"
)

// Card is one rendered pending item.
type Card struct {
	ID              string
	Comment         string
	Name            string
	Badge           string
	ApproveLabel    string
	ApproveDisabled bool
	CreatedAt       time.Time
}

// LoadMoreButton is the state of the "load more" control.
type LoadMoreButton struct {
	Visible  bool
	Disabled bool
	Label    string
}

// ListView is a full render of the pending list. When Error is set it
// replaces the cards; Placeholder is set when there is nothing to show.
type ListView struct {
	Cards       []Card
	Placeholder string
	Error       string
	LoadMore    LoadMoreButton
}

// View receives every UI effect. Calls are made outside the controller lock
// and may come from the polling goroutine.
type View interface {
	SetAuthenticated(authenticated bool)
	ShowNotice(target Target, message string, isError bool)
	HideNotice(target Target)
	RenderPending(list ListView)
	SetLoginBusy(busy bool)
	SetInviteBusy(busy bool)
	// SetInviteExpiry writes the clamped day count back into the form.
	SetInviteExpiry(days string)
	// ResetInviteForm clears the form and restores the default expiry.
	ResetInviteForm(defaultExpiry string)
}
