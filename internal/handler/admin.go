package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/folio/testimonial-relay/internal/audit"
	apperrors "github.com/folio/testimonial-relay/internal/errors"
	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/middleware"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/service"
	"github.com/folio/testimonial-relay/internal/validate"
)

type createCommentTokenRequest struct {
	Token       string    `json:"token" validate:"required,token_hex"`
	ClientName  string    `json:"clientName" validate:"required,max=120"`
	ClientEmail string    `json:"clientEmail" validate:"required,basic_email"`
	Language    string    `json:"language"`
	ExpiresAt   time.Time `json:"expiresAt" validate:"required"`
}

var createTokenMessages = validate.Messages{
	"required":                "Missing fields",
	"token.token_hex":         "Invalid token",
	"clientName.max":          "Name too long",
	"clientEmail.basic_email": "Invalid email",
}

// AdminHandler exposes the moderation queue and token storage to the admin
// console.
type AdminHandler struct {
	testimonials *service.TestimonialService
	invites      *service.InviteService
	auth         func(http.Handler) http.Handler
}

func NewAdminHandler(
	testimonials *service.TestimonialService,
	invites *service.InviteService,
	auth func(http.Handler) http.Handler,
) *AdminHandler {
	return &AdminHandler{
		testimonials: testimonials,
		invites:      invites,
		auth:         auth,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.auth)

		// Moderation
		r.Get("/testimonials/pending", h.ListPending)
		r.Post("/testimonials/{id}/approve", h.Approve)

		// Invitations
		r.Post("/comment-tokens", h.CreateCommentToken)
	})

	return r
}

func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.testimonials.ListPending(r.Context(), p.Offset, p.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if page.Items == nil {
		page.Items = []model.PendingItem{}
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("id", "must be a UUID"))
		return
	}

	approved, err := h.testimonials.Approve(r.Context(), id.String())
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventTestimonialApproved,
		AdminEmail: middleware.GetAdminEmail(r.Context()),
		Resource:   id.String(),
		Details:    map[string]interface{}{"language": string(approved.Language)},
	})
	writeOK(w)
}

func (h *AdminHandler) CreateCommentToken(w http.ResponseWriter, r *http.Request) {
	var req createCommentTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)

	if err := validate.Struct(req); err != nil {
		writeError(w, validate.Error(err, createTokenMessages))
		return
	}

	token, err := h.invites.CreateToken(r.Context(), model.CreateCommentTokenParams{
		Token:       req.Token,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Language:    i18n.Normalize(req.Language),
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventInviteTokenCreated,
		AdminEmail: middleware.GetAdminEmail(r.Context()),
		Resource:   token.ID,
		Details:    map[string]interface{}{"expiresAt": token.ExpiresAt.UTC().Format(time.RFC3339)},
	})
	writeJSON(w, http.StatusCreated, token)
}
