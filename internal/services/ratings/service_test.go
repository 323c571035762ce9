package ratings

import (
	"context"
	"errors"
	"testing"

	"civiclens_bot/internal/domain/model"
)

type stubRepo struct {
	flagged *struct {
		ratingID int64
		reason   string
	}
	submitted *model.RatingDraft
}

func (r *stubRepo) Submit(ctx context.Context, draft model.RatingDraft) (model.Rating, error) {
	r.submitted = &draft
	return model.Rating{ID: 42, EntityID: draft.EntityID, Scores: draft.Scores}, nil
}

func (r *stubRepo) Flag(ctx context.Context, ratingID int64, reason string) error {
	r.flagged = &struct {
		ratingID int64
		reason   string
	}{ratingID: ratingID, reason: reason}
	return nil
}

func (r *stubRepo) Verify(ctx context.Context, ratingID int64) error        { return nil }
func (r *stubRepo) Delete(ctx context.Context, ratingID int64) error        { return nil }
func (r *stubRepo) ListFlagged(ctx context.Context) ([]model.Rating, error) { return nil, nil }
func (r *stubRepo) ListPending(ctx context.Context) ([]model.Rating, error) { return nil, nil }

func validScores() model.RatingScores {
	return model.RatingScores{
		Integrity:      7,
		Transparency:   8,
		Fairness:       6,
		Respectfulness: 9,
		Accountability: 5,
	}
}

func TestSubmitRejectsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*model.RatingScores)
	}{
		{name: "zero score", mutate: func(s *model.RatingScores) { s.Integrity = 0 }},
		{name: "above ten", mutate: func(s *model.RatingScores) { s.Fairness = 11 }},
		{name: "negative", mutate: func(s *model.RatingScores) { s.Accountability = -3 }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubRepo{}
			service := NewService(repo)

			scores := validScores()
			tc.mutate(&scores)

			_, err := service.Submit(context.Background(), model.RatingDraft{EntityID: 1, Scores: scores})
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if repo.submitted != nil {
				t.Fatal("invalid draft reached the repo")
			}
		})
	}
}

func TestSubmitRequiresEntity(t *testing.T) {
	t.Parallel()

	service := NewService(&stubRepo{})
	_, err := service.Submit(context.Background(), model.RatingDraft{Scores: validScores()})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitPassesValidDraftThrough(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	service := NewService(repo)

	rating, err := service.Submit(context.Background(), model.RatingDraft{EntityID: 12, Scores: validScores()})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rating.ID != 42 || rating.EntityID != 12 {
		t.Fatalf("unexpected rating: %+v", rating)
	}
	if repo.submitted == nil || repo.submitted.EntityID != 12 {
		t.Fatal("draft did not reach the repo")
	}
}

func TestFlagShortReasonSkipsNetwork(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	service := NewService(repo)

	err := service.Flag(context.Background(), 5, "  bad ")
	if !errors.Is(err, ErrReasonTooShort) {
		t.Fatalf("expected ErrReasonTooShort, got %v", err)
	}
	if repo.flagged != nil {
		t.Fatal("short reason was still sent to the repo")
	}
}

func TestFlagTrimsReason(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	service := NewService(repo)

	if err := service.Flag(context.Background(), 5, "  fabricated quotes  "); err != nil {
		t.Fatalf("flag: %v", err)
	}
	if repo.flagged == nil {
		t.Fatal("flag never reached the repo")
	}
	if repo.flagged.ratingID != 5 || repo.flagged.reason != "fabricated quotes" {
		t.Fatalf("unexpected flag call: %+v", repo.flagged)
	}
}

func TestFlagRejectsInvalidRatingID(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	service := NewService(repo)

	if err := service.Flag(context.Background(), 0, "long enough reason"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.flagged != nil {
		t.Fatal("invalid id was still sent to the repo")
	}
}
