package entities

import (
	"context"
	"errors"
	"testing"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

type stubRepo struct {
	listed  []model.Entity
	created model.Entity
}

func (r *stubRepo) List(ctx context.Context) ([]model.Entity, error) { return r.listed, nil }
func (r *stubRepo) Get(ctx context.Context, id int64) (model.Entity, error) {
	for _, entity := range r.listed {
		if entity.ID == id {
			return entity, nil
		}
	}
	return model.Entity{}, errors.New("not found")
}
func (r *stubRepo) Create(ctx context.Context, draft model.EntityDraft) (model.Entity, error) {
	return r.created, nil
}
func (r *stubRepo) ListPending(ctx context.Context) ([]model.Entity, error) { return nil, nil }
func (r *stubRepo) Approve(ctx context.Context, id int64) error             { return nil }
func (r *stubRepo) Reject(ctx context.Context, id int64) error              { return nil }

func scoreOf(v float64) *float64 { return &v }

func TestCreateValidatesDraft(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		draft model.EntityDraft
	}{
		{
			name:  "missing name",
			draft: model.EntityDraft{Type: enums.EntityTypeAgency, State: "TX"},
		},
		{
			name:  "unknown type",
			draft: model.EntityDraft{Name: "City Council", Type: "committee", State: "TX"},
		},
		{
			name:  "missing state",
			draft: model.EntityDraft{Name: "City Council", Type: enums.EntityTypeAgency},
		},
	}

	service := NewService(&stubRepo{})
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := service.Create(context.Background(), tc.draft)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateReportsReviewState(t *testing.T) {
	t.Parallel()

	service := NewService(&stubRepo{
		created: model.Entity{ID: 3, Name: "Sheriff Dept", ApprovalStatus: enums.ApprovalStatusPending},
	})

	result, err := service.Create(context.Background(), model.EntityDraft{
		Name:  "Sheriff Dept",
		Type:  enums.EntityTypeAgency,
		State: "AZ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !result.UnderReview {
		t.Fatal("pending entity not reported as under review")
	}
}

func TestListPublicHidesUnapprovedEntities(t *testing.T) {
	t.Parallel()

	service := NewService(&stubRepo{listed: []model.Entity{
		{ID: 1, Name: "Approved Agency", ApprovalStatus: enums.ApprovalStatusApproved},
		{ID: 2, Name: "Pending Agency", ApprovalStatus: enums.ApprovalStatusPending},
		{ID: 3, Name: "Rejected Agency", ApprovalStatus: enums.ApprovalStatusRejected},
	}})

	public, err := service.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(public) != 1 || public[0].ID != 1 {
		t.Fatalf("unexpected public list: %+v", public)
	}
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	t.Parallel()

	entities := []model.Entity{
		{ID: 1, Name: "Maricopa Sheriff", State: "AZ", County: "Maricopa"},
		{ID: 2, Name: "City Clerk", State: "TX", Category: "records"},
		{ID: 3, Name: "Parks Board", State: "AZ", Jurisdiction: "county"},
	}

	testCases := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "by name", query: "sheriff", want: []int64{1}},
		{name: "case insensitive", query: "MARICOPA", want: []int64{1}},
		{name: "by category", query: "records", want: []int64{2}},
		{name: "by state", query: "az", want: []int64{1, 3}},
		{name: "blank query returns all", query: "  ", want: []int64{1, 2, 3}},
		{name: "no match", query: "harbor", want: []int64{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			matched := Search(entities, tc.query)
			if len(matched) != len(tc.want) {
				t.Fatalf("unexpected match count: got %d, want %d", len(matched), len(tc.want))
			}
			for i, entity := range matched {
				if entity.ID != tc.want[i] {
					t.Fatalf("unexpected id at %d: got %d, want %d", i, entity.ID, tc.want[i])
				}
			}
		})
	}
}

func TestSortByReputationPlacesUnratedLast(t *testing.T) {
	t.Parallel()

	entities := []model.Entity{
		{ID: 1, ReputationScore: scoreOf(4.5)},
		{ID: 2},
		{ID: 3, ReputationScore: scoreOf(8.2)},
		{ID: 4, ReputationScore: scoreOf(1.1)},
	}

	worstFirst := SortByReputation(entities, false)
	assertOrder(t, worstFirst, []int64{4, 1, 3, 2})

	bestFirst := SortByReputation(entities, true)
	assertOrder(t, bestFirst, []int64{3, 1, 4, 2})

	// The input slice is left untouched.
	if entities[0].ID != 1 {
		t.Fatal("sort mutated the input slice")
	}
}

func assertOrder(t *testing.T, entities []model.Entity, want []int64) {
	t.Helper()
	if len(entities) != len(want) {
		t.Fatalf("unexpected length: got %d, want %d", len(entities), len(want))
	}
	for i, entity := range entities {
		if entity.ID != want[i] {
			t.Fatalf("unexpected id at %d: got %d, want %d", i, entity.ID, want[i])
		}
	}
}
