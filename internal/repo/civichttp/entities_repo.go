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

type EntitiesRepo struct {
	client *Client
}

func NewEntitiesRepo(client *Client) *EntitiesRepo {
	return &EntitiesRepo{client: client}
}

func (r *EntitiesRepo) List(ctx context.Context) ([]model.Entity, error) {
	response := []entityDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/ratings/entities", nil, &response); err != nil {
		return nil, err
	}

	entities := make([]model.Entity, 0, len(response))
	for _, dto := range response {
		entities = append(entities, dto.toModel())
	}
	return entities, nil
}

func (r *EntitiesRepo) Get(ctx context.Context, entityID int64) (model.Entity, error) {
	response := entityDTO{}
	err := r.client.DoJSON(ctx, http.MethodGet, "/ratings/entities/"+strconv.FormatInt(entityID, 10), nil, &response)
	if err != nil {
		return model.Entity{}, err
	}
	return response.toModel(), nil
}

func (r *EntitiesRepo) Create(ctx context.Context, draft model.EntityDraft) (model.Entity, error) {
	request := map[string]interface{}{
		"name":         strings.TrimSpace(draft.Name),
		"type":         string(draft.Type),
		"category":     strings.TrimSpace(draft.Category),
		"jurisdiction": strings.TrimSpace(draft.Jurisdiction),
		"state":        strings.TrimSpace(draft.State),
		"county":       strings.TrimSpace(draft.County),
	}

	response := entityDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/ratings/entities", request, &response); err != nil {
		return model.Entity{}, err
	}
	return response.toModel(), nil
}

func (r *EntitiesRepo) ListPending(ctx context.Context) ([]model.Entity, error) {
	response := []entityDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/admin/entities/pending", nil, &response); err != nil {
		return nil, err
	}

	entities := make([]model.Entity, 0, len(response))
	for _, dto := range response {
		entities = append(entities, dto.toModel())
	}
	return entities, nil
}

func (r *EntitiesRepo) Approve(ctx context.Context, entityID int64) error {
	path := "/admin/entities/" + strconv.FormatInt(entityID, 10) + "/approve"
	return r.client.DoJSON(ctx, http.MethodPost, path, nil, nil)
}

func (r *EntitiesRepo) Reject(ctx context.Context, entityID int64) error {
	path := "/admin/entities/" + strconv.FormatInt(entityID, 10) + "/reject"
	return r.client.DoJSON(ctx, http.MethodPost, path, nil, nil)
}

type entityDTO struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Category        string    `json:"category"`
	Jurisdiction    string    `json:"jurisdiction"`
	State           string    `json:"state"`
	County          string    `json:"county"`
	ReputationScore *float64  `json:"reputation_score"`
	ApprovalStatus  string    `json:"approval_status"`
	CreatedAt       time.Time `json:"created_at"`
}

func (dto entityDTO) toModel() model.Entity {
	return model.Entity{
		ID:              dto.ID,
		Name:            strings.TrimSpace(dto.Name),
		Type:            enums.EntityType(strings.ToLower(strings.TrimSpace(dto.Type))),
		Category:        strings.TrimSpace(dto.Category),
		Jurisdiction:    strings.TrimSpace(dto.Jurisdiction),
		State:           strings.TrimSpace(dto.State),
		County:          strings.TrimSpace(dto.County),
		ReputationScore: dto.ReputationScore,
		ApprovalStatus:  enums.ParseApprovalStatus(dto.ApprovalStatus),
		CreatedAt:       dto.CreatedAt,
	}
}
