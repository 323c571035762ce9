package policies

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/services/review"
)

var ErrValidation = errors.New("validation error")

type Repo interface {
	List(context.Context) ([]model.Policy, error)
	Create(context.Context, model.Policy) (model.Policy, error)
	SubmitStatusRequest(context.Context, model.PolicyStatusRequestDraft) (model.PolicyStatusRequest, error)
	ListPendingStatusRequests(context.Context) ([]model.PolicyStatusRequest, error)
	ReviewStatusRequest(ctx context.Context, requestID int64, approve bool) error
}

type Service struct {
	repo  Repo
	queue *review.Queue[model.PolicyStatusRequest]
}

func NewService(repo Repo) *Service {
	s := &Service{repo: repo}
	s.queue = review.NewQueue(
		repo.ListPendingStatusRequests,
		func(r model.PolicyStatusRequest) int64 { return r.ID },
		func(ctx context.Context, requestID int64) error {
			return repo.ReviewStatusRequest(ctx, requestID, true)
		},
		func(ctx context.Context, requestID int64) error {
			return repo.ReviewStatusRequest(ctx, requestID, false)
		},
	)
	return s
}

func (s *Service) List(ctx context.Context) ([]model.Policy, error) {
	return s.repo.List(ctx)
}

type SubmitResult struct {
	Request     model.PolicyStatusRequest
	UnderReview bool
}

func (s *Service) SubmitStatusRequest(ctx context.Context, draft model.PolicyStatusRequestDraft) (SubmitResult, error) {
	if draft.PolicyID <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: policy id is required", ErrValidation)
	}
	if draft.RequestedStatusID <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: requested status is required", ErrValidation)
	}
	if link := strings.TrimSpace(draft.SourceLink); link != "" {
		parsed, err := url.Parse(link)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return SubmitResult{}, fmt.Errorf("%w: source link must be a full URL", ErrValidation)
		}
	}

	request, err := s.repo.SubmitStatusRequest(ctx, draft)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		Request:     request,
		UnderReview: request.Status.NeedsReview(),
	}, nil
}

func (s *Service) ReviewQueue() *review.Queue[model.PolicyStatusRequest] {
	return s.queue
}

// Filter keeps policies matching the jurisdiction level (empty level keeps
// all) and a case-insensitive substring of title or summary.
func Filter(policies []model.Policy, level enums.JurisdictionLevel, query string) []model.Policy {
	needle := strings.ToLower(strings.TrimSpace(query))

	matched := make([]model.Policy, 0, len(policies))
	for _, policy := range policies {
		if level != "" && policy.JurisdictionLevel != level {
			continue
		}
		if needle != "" {
			haystack := strings.ToLower(policy.Title + " " + policy.Summary)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, policy)
	}
	return matched
}
