package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/config"
	"github.com/folio/testimonial-relay/internal/database"
	apperrors "github.com/folio/testimonial-relay/internal/errors"
	"github.com/folio/testimonial-relay/internal/metrics"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/repository"
)

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// SubmitParams is a validated public submission.
type SubmitParams struct {
	Token    string
	Name     string
	Comment  string
	Language model.Language
}

// TestimonialService owns submission, moderation and the public listing.
type TestimonialService struct {
	tx          TxRunner
	tokenRepo   repository.CommentTokenRepository
	testimonial repository.TestimonialRepository
	metrics     *metrics.Metrics
}

func NewTestimonialService(
	tx TxRunner,
	tokenRepo repository.CommentTokenRepository,
	testimonialRepo repository.TestimonialRepository,
	m *metrics.Metrics,
) *TestimonialService {
	return &TestimonialService{
		tx:          tx,
		tokenRepo:   tokenRepo,
		testimonial: testimonialRepo,
		metrics:     m,
	}
}

// Submit consumes the invitation token and stores the testimonial as
// pending. Both writes share one transaction, so a failed insert leaves the
// token unused.
func (s *TestimonialService) Submit(ctx context.Context, params SubmitParams) (*model.Testimonial, error) {
	token := strings.ToLower(params.Token)

	var created *model.Testimonial
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		tokenID, err := s.tokenRepo.WithTx(tx).Consume(ctx, token)
		if err != nil {
			log.Error().Err(err).Msg("submit: token consume failed")
			return apperrors.InvalidToken()
		}
		if tokenID == nil {
			log.Info().Str("reason", s.rejectReason(ctx, tx, token)).Msg("submit: token rejected")
			return apperrors.InvalidToken()
		}

		created, err = s.testimonial.WithTx(tx).Create(ctx, model.CreateTestimonialParams{
			TokenID:    *tokenID,
			ClientName: params.Name,
			Comment:    params.Comment,
			Language:   params.Language,
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return apperrors.InvalidToken()
			}
			log.Error().Err(err).Str("tokenId", *tokenID).Msg("submit: insert failed")
			return apperrors.Database("Insert failed", err)
		}
		return nil
	})

	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInvalidToken {
			s.metrics.TestimonialsSubmit.WithLabelValues(metrics.OutcomeRejected).Inc()
		} else {
			s.metrics.TestimonialsSubmit.WithLabelValues(metrics.OutcomeFailed).Inc()
		}
		if _, ok := apperrors.AsAppError(err); !ok {
			// commit or begin failed
			log.Error().Err(err).Msg("submit: transaction failed")
			return nil, apperrors.Database("Insert failed", err)
		}
		return nil, err
	}

	s.metrics.TestimonialsSubmit.WithLabelValues(metrics.OutcomeOK).Inc()
	return created, nil
}

// rejectReason classifies a token the consume step refused. It is used
// for logging only; the caller always answers with the same error.
func (s *TestimonialService) rejectReason(ctx context.Context, tx *sqlx.Tx, token string) string {
	t, err := s.tokenRepo.WithTx(tx).FindByToken(ctx, token)
	switch {
	case err != nil:
		return "lookup_failed"
	case t == nil:
		return "unknown"
	case t.IsConsumable():
		return "race"
	case t.Used:
		return "used"
	default:
		return "expired"
	}
}

// ListPublic returns the most recent approved testimonials.
func (s *TestimonialService) ListPublic(ctx context.Context) ([]model.PublicTestimonial, error) {
	items, err := s.testimonial.ListApproved(ctx, config.PublicTestimonialsLimit)
	if err != nil {
		return nil, apperrors.Database("Failed to load testimonials", err)
	}
	return items, nil
}

// ListPending returns one page of pending testimonials, newest first.
func (s *TestimonialService) ListPending(ctx context.Context, offset, limit int) (*model.PendingPage, error) {
	page, err := s.testimonial.ListPending(ctx, offset, limit)
	if err != nil {
		return nil, apperrors.Database("Failed to load pending testimonials", err)
	}
	return page, nil
}

// Approve publishes a pending testimonial and returns the stored record.
func (s *TestimonialService) Approve(ctx context.Context, id string) (*model.Testimonial, error) {
	ok, err := s.testimonial.Approve(ctx, id)
	if err != nil {
		return nil, apperrors.Database("Failed to approve testimonial", err)
	}
	if !ok {
		return nil, apperrors.NotFound("Pending testimonial")
	}
	s.metrics.TestimonialsApproved.Inc()

	approved, err := s.testimonial.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database("Failed to load testimonial", err)
	}
	if approved == nil {
		return nil, apperrors.NotFound("Testimonial")
	}
	return approved, nil
}
