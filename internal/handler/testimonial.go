package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folio/testimonial-relay/internal/audit"
	apperrors "github.com/folio/testimonial-relay/internal/errors"
	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/service"
	"github.com/folio/testimonial-relay/internal/validate"
)

type submitTestimonialRequest struct {
	Token    string `json:"token" validate:"required,token_hex"`
	Name     string `json:"name" validate:"required,max=120"`
	Comment  string `json:"comment" validate:"required,max=1200"`
	Language string `json:"language"`
}

var submitMessages = validate.Messages{
	"required":        "Missing fields",
	"token.token_hex": "Invalid token",
	"name.max":        "Name too long",
	"comment.max":     "Comment too long",
}

// TestimonialHandler serves the public comment form and listing.
type TestimonialHandler struct {
	testimonials *service.TestimonialService
	rateLimit    func(http.Handler) http.Handler
}

func NewTestimonialHandler(testimonials *service.TestimonialService, rateLimit func(http.Handler) http.Handler) *TestimonialHandler {
	return &TestimonialHandler{
		testimonials: testimonials,
		rateLimit:    rateLimit,
	}
}

func (h *TestimonialHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.rateLimit).Post("/submit-testimonial", h.Submit)
	r.Get("/testimonials", h.ListPublic)

	return r
}

func (h *TestimonialHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitTestimonialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	req.Name = strings.TrimSpace(req.Name)
	req.Comment = strings.TrimSpace(req.Comment)

	if err := validate.Struct(req); err != nil {
		writeError(w, validate.Error(err, submitMessages))
		return
	}

	created, err := h.testimonials.Submit(r.Context(), service.SubmitParams{
		Token:    req.Token,
		Name:     req.Name,
		Comment:  req.Comment,
		Language: i18n.Normalize(req.Language),
	})
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInvalidToken {
			audit.LogFromRequest(r, audit.Event{
				Type:     audit.EventTestimonialRejected,
				Resource: "testimonial",
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventTestimonialSubmitted,
		Resource: created.ID,
		Details:  map[string]interface{}{"language": string(created.Language)},
	})
	writeOK(w)
}

func (h *TestimonialHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	items, err := h.testimonials.ListPublic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.PublicTestimonial{}
	}

	// Approvals show up within a minute.
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
