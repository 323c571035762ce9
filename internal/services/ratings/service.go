package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/services/review"
)

const minFlagReasonLen = 5

var (
	ErrValidation     = errors.New("validation error")
	ErrReasonTooShort = fmt.Errorf("%w: flag reason must be at least %d characters", ErrValidation, minFlagReasonLen)
)

type Repo interface {
	Submit(context.Context, model.RatingDraft) (model.Rating, error)
	Flag(ctx context.Context, ratingID int64, reason string) error
	Verify(ctx context.Context, ratingID int64) error
	Delete(ctx context.Context, ratingID int64) error
	ListFlagged(context.Context) ([]model.Rating, error)
	ListPending(context.Context) ([]model.Rating, error)
}

type Service struct {
	repo         Repo
	flaggedQueue *review.Queue[model.Rating]
	pendingQueue *review.Queue[model.Rating]
}

func NewService(repo Repo) *Service {
	ratingID := func(r model.Rating) int64 { return r.ID }
	return &Service{
		repo: repo,
		// Verify keeps a flagged rating, delete removes it. Both are
		// terminal decisions that prune the queue.
		flaggedQueue: review.NewQueue(repo.ListFlagged, ratingID, repo.Verify, repo.Delete),
		pendingQueue: review.NewQueue(repo.ListPending, ratingID, repo.Verify, repo.Delete),
	}
}

func (s *Service) Submit(ctx context.Context, draft model.RatingDraft) (model.Rating, error) {
	if err := validateDraft(draft); err != nil {
		return model.Rating{}, err
	}
	return s.repo.Submit(ctx, draft)
}

// Flag validates the reason locally before any network call.
func (s *Service) Flag(ctx context.Context, ratingID int64, reason string) error {
	trimmed := strings.TrimSpace(reason)
	if utf8.RuneCountInString(trimmed) < minFlagReasonLen {
		return ErrReasonTooShort
	}
	if ratingID <= 0 {
		return fmt.Errorf("%w: invalid rating id", ErrValidation)
	}
	return s.repo.Flag(ctx, ratingID, trimmed)
}

func (s *Service) FlaggedQueue() *review.Queue[model.Rating] {
	return s.flaggedQueue
}

func (s *Service) PendingQueue() *review.Queue[model.Rating] {
	return s.pendingQueue
}

func validateDraft(draft model.RatingDraft) error {
	if draft.EntityID <= 0 {
		return fmt.Errorf("%w: entity id is required", ErrValidation)
	}
	scores := []int{
		draft.Scores.Integrity,
		draft.Scores.Transparency,
		draft.Scores.Fairness,
		draft.Scores.Respectfulness,
		draft.Scores.Accountability,
	}
	for _, score := range scores {
		if score < 1 || score > 10 {
			return fmt.Errorf("%w: scores must be between 1 and 10", ErrValidation)
		}
	}
	return nil
}
