package civichttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

type RatingsRepo struct {
	client *Client
}

func NewRatingsRepo(client *Client) *RatingsRepo {
	return &RatingsRepo{client: client}
}

func (r *RatingsRepo) Submit(ctx context.Context, draft model.RatingDraft) (model.Rating, error) {
	rights := make([]string, 0, len(draft.ViolatedRights))
	for _, right := range draft.ViolatedRights {
		rights = append(rights, string(right))
	}

	request := map[string]interface{}{
		"entity_id":       draft.EntityID,
		"integrity":       draft.Scores.Integrity,
		"transparency":    draft.Scores.Transparency,
		"fairness":        draft.Scores.Fairness,
		"respectfulness":  draft.Scores.Respectfulness,
		"accountability":  draft.Scores.Accountability,
		"comment":         strings.TrimSpace(draft.Comment),
		"violated_rights": rights,
	}

	response := ratingDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/ratings/submit", request, &response); err != nil {
		return model.Rating{}, err
	}
	return response.toModel(), nil
}

func (r *RatingsRepo) Flag(ctx context.Context, ratingID int64, reason string) error {
	request := map[string]string{"reason": strings.TrimSpace(reason)}
	path := "/ratings/flag-rating/" + strconv.FormatInt(ratingID, 10)
	return r.client.DoJSON(ctx, http.MethodPost, path, request, nil)
}

func (r *RatingsRepo) Verify(ctx context.Context, ratingID int64) error {
	path := "/ratings/verify/" + strconv.FormatInt(ratingID, 10)
	return r.client.DoJSON(ctx, http.MethodPost, path, nil, nil)
}

func (r *RatingsRepo) Delete(ctx context.Context, ratingID int64) error {
	path := "/ratings/" + strconv.FormatInt(ratingID, 10)
	return r.client.DoJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (r *RatingsRepo) ListFlagged(ctx context.Context) ([]model.Rating, error) {
	return r.list(ctx, "/ratings/admin/flagged-ratings")
}

func (r *RatingsRepo) ListPending(ctx context.Context) ([]model.Rating, error) {
	return r.list(ctx, "/ratings/admin/pending")
}

func (r *RatingsRepo) list(ctx context.Context, path string) ([]model.Rating, error) {
	response := []ratingDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	ratings := make([]model.Rating, 0, len(response))
	for _, dto := range response {
		ratings = append(ratings, dto.toModel())
	}
	return ratings, nil
}

type ratingDTO struct {
	ID             int64     `json:"id"`
	EntityID       int64     `json:"entity_id"`
	Integrity      int       `json:"integrity"`
	Transparency   int       `json:"transparency"`
	Fairness       int       `json:"fairness"`
	Respectfulness int       `json:"respectfulness"`
	Accountability int       `json:"accountability"`
	Comment        string    `json:"comment"`
	ViolatedRights []string  `json:"violated_rights"`
	Verified       bool      `json:"verified"`
	Flagged        bool      `json:"flagged"`
	FlagReason     string    `json:"flag_reason"`
	CreatedAt      time.Time `json:"created_at"`
}

func (dto ratingDTO) toModel() model.Rating {
	rights := make([]enums.RightCode, 0, len(dto.ViolatedRights))
	for _, raw := range dto.ViolatedRights {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		rights = append(rights, enums.RightCode(strings.ToUpper(trimmed)))
	}

	return model.Rating{
		ID:       dto.ID,
		EntityID: dto.EntityID,
		Scores: model.RatingScores{
			Integrity:      dto.Integrity,
			Transparency:   dto.Transparency,
			Fairness:       dto.Fairness,
			Respectfulness: dto.Respectfulness,
			Accountability: dto.Accountability,
		},
		Comment:        strings.TrimSpace(dto.Comment),
		ViolatedRights: rights,
		Verified:       dto.Verified,
		Flagged:        dto.Flagged,
		FlagReason:     strings.TrimSpace(dto.FlagReason),
		CreatedAt:      dto.CreatedAt,
	}
}
