package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/folio/testimonial-relay/internal/errors"
	"github.com/folio/testimonial-relay/internal/mail"
	"github.com/folio/testimonial-relay/internal/metrics"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/repository"
)

// Mailer delivers one rendered email.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// InviteService stores invitation tokens and emails invitation links.
type InviteService struct {
	tokenRepo repository.CommentTokenRepository
	mailer    Mailer
	metrics   *metrics.Metrics
}

func NewInviteService(tokenRepo repository.CommentTokenRepository, mailer Mailer, m *metrics.Metrics) *InviteService {
	return &InviteService{
		tokenRepo: tokenRepo,
		mailer:    mailer,
		metrics:   m,
	}
}

// Ready reports whether invitation emails can be delivered.
func (s *InviteService) Ready() bool {
	return s.mailer != nil
}

// CreateToken stores a new single-use invitation token.
func (s *InviteService) CreateToken(ctx context.Context, params model.CreateCommentTokenParams) (*model.CommentToken, error) {
	params.Token = strings.ToLower(params.Token)

	token, err := s.tokenRepo.Create(ctx, params)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Token")
		}
		return nil, apperrors.Database("Failed to create token", err)
	}

	s.metrics.TokensCreated.Inc()
	log.Info().
		Str("tokenId", token.ID).
		Str("language", string(token.Language)).
		Time("expiresAt", token.ExpiresAt).
		Msg("invitation token created")
	return token, nil
}

// SendInvitation renders and sends the invitation email.
func (s *InviteService) SendInvitation(ctx context.Context, inv mail.Invitation) error {
	if s.mailer == nil {
		return apperrors.Misconfigured()
	}

	msg, err := mail.RenderInvitation(inv)
	if err != nil {
		s.metrics.InvitesSent.WithLabelValues(metrics.OutcomeFailed).Inc()
		return apperrors.Internal("Internal server error").WithCause(err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.InvitesSent.WithLabelValues(metrics.OutcomeFailed).Inc()
		return apperrors.External("Email send failed", err)
	}

	s.metrics.InvitesSent.WithLabelValues(metrics.OutcomeOK).Inc()
	return nil
}
