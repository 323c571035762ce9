package civichttp

import (
	"context"
	"net/http"
	"strconv"

	"civiclens_bot/internal/domain/model"
)

type AdminRepo struct {
	client *Client
}

func NewAdminRepo(client *Client) *AdminRepo {
	return &AdminRepo{client: client}
}

func (r *AdminRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	response := []userDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/admin/users", nil, &response); err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(response))
	for _, dto := range response {
		users = append(users, dto.toModel())
	}
	return users, nil
}

func (r *AdminRepo) ListPendingOfficials(ctx context.Context) ([]model.User, error) {
	response := []userDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/admin/officials/pending", nil, &response); err != nil {
		return nil, err
	}

	officials := make([]model.User, 0, len(response))
	for _, dto := range response {
		officials = append(officials, dto.toModel())
	}
	return officials, nil
}

func (r *AdminRepo) VerifyOfficial(ctx context.Context, userID int64) error {
	path := "/admin/officials/" + strconv.FormatInt(userID, 10) + "/verify"
	return r.client.DoJSON(ctx, http.MethodPatch, path, nil, nil)
}
