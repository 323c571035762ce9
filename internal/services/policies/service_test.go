package policies

import (
	"context"
	"errors"
	"testing"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

type stubRepo struct {
	submitted *model.PolicyStatusRequestDraft
}

func (r *stubRepo) List(ctx context.Context) ([]model.Policy, error) { return nil, nil }
func (r *stubRepo) Create(ctx context.Context, policy model.Policy) (model.Policy, error) {
	return policy, nil
}
func (r *stubRepo) SubmitStatusRequest(ctx context.Context, draft model.PolicyStatusRequestDraft) (model.PolicyStatusRequest, error) {
	r.submitted = &draft
	return model.PolicyStatusRequest{ID: 9, PolicyID: draft.PolicyID, Status: enums.ApprovalStatusPending}, nil
}
func (r *stubRepo) ListPendingStatusRequests(ctx context.Context) ([]model.PolicyStatusRequest, error) {
	return nil, nil
}
func (r *stubRepo) ReviewStatusRequest(ctx context.Context, requestID int64, approve bool) error {
	return nil
}

func TestSubmitStatusRequestValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		draft model.PolicyStatusRequestDraft
	}{
		{
			name:  "missing policy id",
			draft: model.PolicyStatusRequestDraft{RequestedStatusID: 2},
		},
		{
			name:  "missing requested status",
			draft: model.PolicyStatusRequestDraft{PolicyID: 1},
		},
		{
			name:  "relative source link",
			draft: model.PolicyStatusRequestDraft{PolicyID: 1, RequestedStatusID: 2, SourceLink: "statehouse.gov/bill"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubRepo{}
			service := NewService(repo)

			_, err := service.SubmitStatusRequest(context.Background(), tc.draft)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if repo.submitted != nil {
				t.Fatal("invalid draft reached the repo")
			}
		})
	}
}

func TestSubmitStatusRequestAcceptsFullURLAndEmptyLink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		link string
	}{
		{name: "https link", link: "https://statehouse.gov/bill/1234"},
		{name: "no link", link: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubRepo{}
			service := NewService(repo)

			result, err := service.SubmitStatusRequest(context.Background(), model.PolicyStatusRequestDraft{
				PolicyID:          1,
				RequestedStatusID: 2,
				SourceLink:        tc.link,
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if !result.UnderReview {
				t.Fatal("pending request not reported as under review")
			}
			if repo.submitted == nil {
				t.Fatal("draft did not reach the repo")
			}
		})
	}
}

func TestFilterByLevelAndQuery(t *testing.T) {
	t.Parallel()

	policies := []model.Policy{
		{ID: 1, Title: "Body Camera Act", Summary: "recording of stops", JurisdictionLevel: enums.JurisdictionState},
		{ID: 2, Title: "Open Records Rule", Summary: "access to records", JurisdictionLevel: enums.JurisdictionState},
		{ID: 3, Title: "Federal Transparency Act", Summary: "agency disclosures", JurisdictionLevel: enums.JurisdictionFederal},
	}

	testCases := []struct {
		name  string
		level enums.JurisdictionLevel
		query string
		want  []int64
	}{
		{name: "all levels", level: "", query: "", want: []int64{1, 2, 3}},
		{name: "state only", level: enums.JurisdictionState, query: "", want: []int64{1, 2}},
		{name: "query on title", level: "", query: "records", want: []int64{2}},
		{name: "query on summary", level: "", query: "recording", want: []int64{1}},
		{name: "query is case-insensitive", level: "", query: "BODY camera", want: []int64{1}},
		{name: "level and query", level: enums.JurisdictionFederal, query: "act", want: []int64{3}},
		{name: "no match", level: enums.JurisdictionFederal, query: "camera", want: []int64{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			matched := Filter(policies, tc.level, tc.query)
			if len(matched) != len(tc.want) {
				t.Fatalf("unexpected count: got %d, want %d", len(matched), len(tc.want))
			}
			for i, policy := range matched {
				if policy.ID != tc.want[i] {
					t.Fatalf("unexpected id at %d: got %d, want %d", i, policy.ID, tc.want[i])
				}
			}
		})
	}
}
