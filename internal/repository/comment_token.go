package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/folio/testimonial-relay/internal/model"
)

// CommentTokenRepository handles invitation token data operations
type CommentTokenRepository interface {
	Create(ctx context.Context, params model.CreateCommentTokenParams) (*model.CommentToken, error)
	FindByToken(ctx context.Context, token string) (*model.CommentToken, error)
	// Consume marks an unused, unexpired token as used and returns its ID.
	// A nil ID means the token is unknown, expired or already consumed.
	Consume(ctx context.Context, token string) (*string, error)
	DeleteExpiredUnused(ctx context.Context, expiredBefore time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) CommentTokenRepository
}

type commentTokenRepo struct {
	db sqlxDB
}

func NewCommentTokenRepository(db *sqlx.DB) CommentTokenRepository {
	return &commentTokenRepo{db: db}
}

func (r *commentTokenRepo) WithTx(tx *sqlx.Tx) CommentTokenRepository {
	return &commentTokenRepo{db: tx}
}

func (r *commentTokenRepo) Create(ctx context.Context, params model.CreateCommentTokenParams) (*model.CommentToken, error) {
	var token model.CommentToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO comment_tokens (token, client_name, client_email, language, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Token, params.ClientName, params.ClientEmail, params.Language, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *commentTokenRepo) FindByToken(ctx context.Context, token string) (*model.CommentToken, error) {
	var ct model.CommentToken
	err := r.db.GetContext(ctx, &ct, `
		SELECT * FROM comment_tokens WHERE token = $1
	`, token)
	return HandleNotFound(&ct, err)
}

func (r *commentTokenRepo) Consume(ctx context.Context, token string) (*string, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `
		UPDATE comment_tokens
		SET used = true, used_at = NOW()
		WHERE token = $1 AND used = false AND expires_at > NOW()
		RETURNING id
	`, token)
	return HandleNotFound(&id, err)
}

func (r *commentTokenRepo) DeleteExpiredUnused(ctx context.Context, expiredBefore time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM comment_tokens
		WHERE used = false AND expires_at < $1
	`, expiredBefore)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
