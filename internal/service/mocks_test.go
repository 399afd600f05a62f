package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/folio/testimonial-relay/internal/database"
	"github.com/folio/testimonial-relay/internal/mail"
	"github.com/folio/testimonial-relay/internal/model"
	"github.com/folio/testimonial-relay/internal/repository"
)

type mockCommentTokenRepo struct {
	mock.Mock
}

func (m *mockCommentTokenRepo) Create(ctx context.Context, params model.CreateCommentTokenParams) (*model.CommentToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CommentToken), args.Error(1)
}

func (m *mockCommentTokenRepo) FindByToken(ctx context.Context, token string) (*model.CommentToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CommentToken), args.Error(1)
}

func (m *mockCommentTokenRepo) Consume(ctx context.Context, token string) (*string, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

func (m *mockCommentTokenRepo) DeleteExpiredUnused(ctx context.Context, expiredBefore time.Time) (int64, error) {
	args := m.Called(ctx, expiredBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCommentTokenRepo) WithTx(tx *sqlx.Tx) repository.CommentTokenRepository {
	return m
}

type mockTestimonialRepo struct {
	mock.Mock
}

func (m *mockTestimonialRepo) Create(ctx context.Context, params model.CreateTestimonialParams) (*model.Testimonial, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Testimonial), args.Error(1)
}

func (m *mockTestimonialRepo) FindByID(ctx context.Context, id string) (*model.Testimonial, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Testimonial), args.Error(1)
}

func (m *mockTestimonialRepo) ListPending(ctx context.Context, offset, limit int) (*model.PendingPage, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PendingPage), args.Error(1)
}

func (m *mockTestimonialRepo) ListApproved(ctx context.Context, limit int) ([]model.PublicTestimonial, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PublicTestimonial), args.Error(1)
}

func (m *mockTestimonialRepo) Approve(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTestimonialRepo) WithTx(tx *sqlx.Tx) repository.TestimonialRepository {
	return m
}

// fakeTx runs fn without a real transaction and records whether the
// outcome would have been committed.
type fakeTx struct {
	committed  int
	rolledBack int
}

func (f *fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	if err := fn(nil); err != nil {
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
