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

type PoliciesRepo struct {
	client *Client
}

func NewPoliciesRepo(client *Client) *PoliciesRepo {
	return &PoliciesRepo{client: client}
}

func (r *PoliciesRepo) List(ctx context.Context) ([]model.Policy, error) {
	response := []policyDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/policies", nil, &response); err != nil {
		return nil, err
	}

	policies := make([]model.Policy, 0, len(response))
	for _, dto := range response {
		policies = append(policies, dto.toModel())
	}
	return policies, nil
}

func (r *PoliciesRepo) Create(ctx context.Context, policy model.Policy) (model.Policy, error) {
	request := map[string]interface{}{
		"title":              strings.TrimSpace(policy.Title),
		"summary":            strings.TrimSpace(policy.Summary),
		"jurisdiction_level": string(policy.JurisdictionLevel),
		"state_code":         strings.TrimSpace(policy.StateCode),
		"governing_body":     strings.TrimSpace(policy.GoverningBody),
	}
	if policy.RatedEntityID != nil {
		request["rated_entity_id"] = *policy.RatedEntityID
	}

	response := policyDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/policies", request, &response); err != nil {
		return model.Policy{}, err
	}
	return response.toModel(), nil
}

func (r *PoliciesRepo) SubmitStatusRequest(ctx context.Context, draft model.PolicyStatusRequestDraft) (model.PolicyStatusRequest, error) {
	request := map[string]interface{}{
		"policy_id":           draft.PolicyID,
		"requested_status_id": draft.RequestedStatusID,
		"source_link":         strings.TrimSpace(draft.SourceLink),
		"note":                strings.TrimSpace(draft.Note),
	}

	response := policyStatusRequestDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/policies/status-request", request, &response); err != nil {
		return model.PolicyStatusRequest{}, err
	}
	return response.toModel(), nil
}

func (r *PoliciesRepo) ListPendingStatusRequests(ctx context.Context) ([]model.PolicyStatusRequest, error) {
	response := []policyStatusRequestDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/policies/status-request/pending", nil, &response); err != nil {
		return nil, err
	}

	requests := make([]model.PolicyStatusRequest, 0, len(response))
	for _, dto := range response {
		requests = append(requests, dto.toModel())
	}
	return requests, nil
}

func (r *PoliciesRepo) ReviewStatusRequest(ctx context.Context, requestID int64, approve bool) error {
	decision := "rejected"
	if approve {
		decision = "approved"
	}
	request := map[string]string{"decision": decision}
	path := "/policies/status-request/" + strconv.FormatInt(requestID, 10) + "/review"
	return r.client.DoJSON(ctx, http.MethodPost, path, request, nil)
}

type policyDTO struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	JurisdictionLevel string    `json:"jurisdiction_level"`
	StateCode         string    `json:"state_code"`
	GoverningBody     string    `json:"governing_body"`
	RatedEntityID     *int64    `json:"rated_entity_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (dto policyDTO) toModel() model.Policy {
	return model.Policy{
		ID:                dto.ID,
		Title:             strings.TrimSpace(dto.Title),
		Summary:           strings.TrimSpace(dto.Summary),
		JurisdictionLevel: enums.JurisdictionLevel(strings.ToLower(strings.TrimSpace(dto.JurisdictionLevel))),
		StateCode:         strings.ToUpper(strings.TrimSpace(dto.StateCode)),
		GoverningBody:     strings.TrimSpace(dto.GoverningBody),
		RatedEntityID:     dto.RatedEntityID,
		Status:            strings.TrimSpace(dto.Status),
		CreatedAt:         dto.CreatedAt,
	}
}

type policyStatusRequestDTO struct {
	ID                int64     `json:"id"`
	PolicyID          int64     `json:"policy_id"`
	PolicyTitle       string    `json:"policy_title"`
	RequestedStatusID int64     `json:"requested_status_id"`
	RequestedStatus   string    `json:"requested_status"`
	SourceLink        string    `json:"source_link"`
	Note              string    `json:"note"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (dto policyStatusRequestDTO) toModel() model.PolicyStatusRequest {
	return model.PolicyStatusRequest{
		ID:                dto.ID,
		PolicyID:          dto.PolicyID,
		PolicyTitle:       strings.TrimSpace(dto.PolicyTitle),
		RequestedStatusID: dto.RequestedStatusID,
		RequestedStatus:   strings.TrimSpace(dto.RequestedStatus),
		SourceLink:        strings.TrimSpace(dto.SourceLink),
		Note:              strings.TrimSpace(dto.Note),
		Status:            enums.ParseApprovalStatus(dto.Status),
		CreatedAt:         dto.CreatedAt,
	}
}
