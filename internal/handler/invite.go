package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/audit"
	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/mail"
	"github.com/folio/testimonial-relay/internal/middleware"
	"github.com/folio/testimonial-relay/internal/service"
	"github.com/folio/testimonial-relay/internal/validate"
)

type sendInviteRequest struct {
	Email      string `json:"email" validate:"required,basic_email"`
	Name       string `json:"name" validate:"required,max=120"`
	Language   string `json:"language"`
	Token      string `json:"token"`
	CommentURL string `json:"commentUrl" validate:"required,web_url"`
	ExpiresAt  string `json:"expiresAt"`
}

var sendInviteMessages = validate.Messages{
	"required":           "Missing fields",
	"email.basic_email":  "Invalid email",
	"name.max":           "Name too long",
	"commentUrl.web_url": "Invalid comment URL",
}

// InviteHandler serves the admin only invitation email endpoint.
type InviteHandler struct {
	invites   *service.InviteService
	auth      func(http.Handler) http.Handler
	rateLimit func(http.Handler) http.Handler
}

func NewInviteHandler(
	invites *service.InviteService,
	auth func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
) *InviteHandler {
	return &InviteHandler{
		invites:   invites,
		auth:      auth,
		rateLimit: rateLimit,
	}
}

func (h *InviteHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequireReady(h.invites.Ready()))
	r.Use(h.auth)
	r.Use(h.rateLimit)
	r.Post("/", h.SendInvite)

	return r
}

func (h *InviteHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	var req sendInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.CommentURL = strings.TrimSpace(req.CommentURL)
	req.ExpiresAt = strings.TrimSpace(req.ExpiresAt)

	if err := validate.Struct(req); err != nil {
		writeError(w, validate.Error(err, sendInviteMessages))
		return
	}

	lang := i18n.Normalize(req.Language)
	if strings.TrimSpace(req.Language) == "" {
		lang = i18n.Match(r.Header.Get("Accept-Language"))
	}

	admin := middleware.GetAdminEmail(r.Context())
	inv := mail.Invitation{
		To:         req.Email,
		Name:       req.Name,
		Language:   lang,
		CommentURL: req.CommentURL,
		ExpiresAt:  req.ExpiresAt,
	}

	if err := h.invites.SendInvitation(r.Context(), inv); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("admin", admin).Msg("invitation email failed")
		audit.LogFromRequest(r, audit.Event{
			Type:       audit.EventInviteFailed,
			AdminEmail: admin,
			Resource:   "invite",
			Details:    map[string]interface{}{"error": err},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventInviteSent,
		AdminEmail: admin,
		Resource:   "invite",
		Details:    map[string]interface{}{"language": string(inv.Language)},
	})
	writeOK(w)
}
