package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/folio/testimonial-relay/internal/model"
)

type TestimonialRepository interface {
	Create(ctx context.Context, params model.CreateTestimonialParams) (*model.Testimonial, error)
	FindByID(ctx context.Context, id string) (*model.Testimonial, error)
	// ListPending returns pending testimonials newest first. It reads one row
	// past limit so the caller learns whether another page exists.
	ListPending(ctx context.Context, offset, limit int) (*model.PendingPage, error)
	ListApproved(ctx context.Context, limit int) ([]model.PublicTestimonial, error)
	// Approve flips a pending testimonial to approved. It reports false when
	// no pending row has that ID.
	Approve(ctx context.Context, id string) (bool, error)
	WithTx(tx *sqlx.Tx) TestimonialRepository
}

type testimonialRepo struct {
	db sqlxDB
}

func NewTestimonialRepository(db *sqlx.DB) TestimonialRepository {
	return &testimonialRepo{db: db}
}

func (r *testimonialRepo) WithTx(tx *sqlx.Tx) TestimonialRepository {
	return &testimonialRepo{db: tx}
}

func (r *testimonialRepo) Create(ctx context.Context, params model.CreateTestimonialParams) (*model.Testimonial, error) {
	var t model.Testimonial
	err := r.db.GetContext(ctx, &t, `
		INSERT INTO testimonials (token_id, client_name, comment, language, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.TokenID, params.ClientName, params.Comment, params.Language, model.TestimonialStatusPending)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *testimonialRepo) FindByID(ctx context.Context, id string) (*model.Testimonial, error) {
	var t model.Testimonial
	err := r.db.GetContext(ctx, &t, `
		SELECT * FROM testimonials WHERE id = $1
	`, id)
	return HandleNotFound(&t, err)
}

func (r *testimonialRepo) ListPending(ctx context.Context, offset, limit int) (*model.PendingPage, error) {
	items := []model.PendingItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, client_name, comment, created_at
		FROM testimonials
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, model.TestimonialStatusPending, limit+1, offset)
	if err != nil {
		return nil, err
	}

	page := &model.PendingPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
	}
	return page, nil
}

func (r *testimonialRepo) ListApproved(ctx context.Context, limit int) ([]model.PublicTestimonial, error) {
	items := []model.PublicTestimonial{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT client_name, comment, created_at
		FROM testimonials
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, model.TestimonialStatusApproved, limit)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *testimonialRepo) Approve(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE testimonials
		SET status = $1, approved_at = NOW()
		WHERE id = $2 AND status = $3
	`, model.TestimonialStatusApproved, id, model.TestimonialStatusPending)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
