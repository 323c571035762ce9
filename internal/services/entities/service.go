package entities

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/services/review"
)

var ErrValidation = errors.New("validation error")

type Repo interface {
	List(context.Context) ([]model.Entity, error)
	Get(context.Context, int64) (model.Entity, error)
	Create(context.Context, model.EntityDraft) (model.Entity, error)
	ListPending(context.Context) ([]model.Entity, error)
	Approve(context.Context, int64) error
	Reject(context.Context, int64) error
}

type Service struct {
	repo  Repo
	queue *review.Queue[model.Entity]
}

func NewService(repo Repo) *Service {
	s := &Service{repo: repo}
	s.queue = review.NewQueue(
		repo.ListPending,
		func(e model.Entity) int64 { return e.ID },
		repo.Approve,
		repo.Reject,
	)
	return s
}

type CreateResult struct {
	Entity model.Entity
	// UnderReview distinguishes the "submitted for review" acknowledgment
	// from a plain success.
	UnderReview bool
}

func (s *Service) Create(ctx context.Context, draft model.EntityDraft) (CreateResult, error) {
	if err := validateDraft(draft); err != nil {
		return CreateResult{}, err
	}

	entity, err := s.repo.Create(ctx, draft)
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Entity:      entity,
		UnderReview: entity.ApprovalStatus.NeedsReview(),
	}, nil
}

// ListPublic fetches the collection and keeps only approved entities, so a
// freshly submitted entity never leaks into the public list before an admin
// decision.
func (s *Service) ListPublic(ctx context.Context) ([]model.Entity, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	public := make([]model.Entity, 0, len(all))
	for _, entity := range all {
		if entity.ApprovalStatus.IsPublic() {
			public = append(public, entity)
		}
	}
	return public, nil
}

func (s *Service) Get(ctx context.Context, entityID int64) (model.Entity, error) {
	return s.repo.Get(ctx, entityID)
}

func (s *Service) PendingQueue() *review.Queue[model.Entity] {
	return s.queue
}

// Search filters by case-insensitive substring across the entity's textual
// fields.
func Search(entities []model.Entity, query string) []model.Entity {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return entities
	}

	matched := make([]model.Entity, 0, len(entities))
	for _, entity := range entities {
		haystack := strings.ToLower(strings.Join([]string{
			entity.Name,
			entity.State,
			entity.County,
			entity.Category,
			string(entity.Type),
			entity.Jurisdiction,
		}, " "))
		if strings.Contains(haystack, needle) {
			matched = append(matched, entity)
		}
	}
	return matched
}

// SortByReputation orders by reputation score, worst first by default or
// best first when descending. Entities without a score sort last in either
// direction.
func SortByReputation(entities []model.Entity, descending bool) []model.Entity {
	sorted := make([]model.Entity, len(entities))
	copy(sorted, entities)

	sort.SliceStable(sorted, func(i, j int) bool {
		left, right := sorted[i].ReputationScore, sorted[j].ReputationScore
		switch {
		case left == nil && right == nil:
			return false
		case left == nil:
			return false
		case right == nil:
			return true
		case descending:
			return *left > *right
		default:
			return *left < *right
		}
	})
	return sorted
}

func validateDraft(draft model.EntityDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	switch draft.Type {
	case enums.EntityTypeIndividual, enums.EntityTypeAgency, enums.EntityTypeInstitution:
	default:
		return fmt.Errorf("%w: unknown entity type %q", ErrValidation, draft.Type)
	}
	if strings.TrimSpace(draft.State) == "" {
		return fmt.Errorf("%w: state is required", ErrValidation)
	}
	return nil
}
