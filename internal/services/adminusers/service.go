package adminusers

import (
	"context"

	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/services/review"
)

type Repo interface {
	ListUsers(context.Context) ([]model.User, error)
	ListPendingOfficials(context.Context) ([]model.User, error)
	VerifyOfficial(context.Context, int64) error
}

type Service struct {
	repo  Repo
	queue *review.Queue[model.User]
}

func NewService(repo Repo) *Service {
	s := &Service{repo: repo}
	s.queue = review.NewQueue(
		repo.ListPendingOfficials,
		func(u model.User) int64 { return u.ID },
		repo.VerifyOfficial,
		// There is no reject endpoint for officials; the queue only prunes
		// on verify and declines stay pending server-side.
		nil,
	)
	return s
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) PendingOfficials() *review.Queue[model.User] {
	return s.queue
}
