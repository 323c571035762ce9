package civichttp

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civiclens_bot/internal/domain/model"
)

type VaultRepo struct {
	client *Client
}

func NewVaultRepo(client *Client) *VaultRepo {
	return &VaultRepo{client: client}
}

func (r *VaultRepo) ListMine(ctx context.Context) ([]model.VaultEntry, error) {
	response := []vaultEntryDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/vault-entries/mine", nil, &response); err != nil {
		return nil, err
	}

	entries := make([]model.VaultEntry, 0, len(response))
	for _, dto := range response {
		entries = append(entries, dto.toModel())
	}
	return entries, nil
}

func (r *VaultRepo) Feed(ctx context.Context) ([]model.FeedItem, error) {
	response := []feedItemDTO{}
	if err := r.client.DoJSON(ctx, http.MethodGet, "/vault-entries/feed", nil, &response); err != nil {
		return nil, err
	}

	items := make([]model.FeedItem, 0, len(response))
	for _, dto := range response {
		items = append(items, dto.toModel())
	}
	return items, nil
}

func (r *VaultRepo) Create(ctx context.Context, draft model.VaultEntryDraft) (model.VaultEntry, error) {
	request := map[string]interface{}{
		"entity_id": draft.EntityID,
		"testimony": strings.TrimSpace(draft.Testimony),
		"is_public": draft.IsPublic,
	}

	response := vaultEntryDTO{}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/vault-entries", request, &response); err != nil {
		return model.VaultEntry{}, err
	}
	return response.toModel(), nil
}

func (r *VaultRepo) Update(ctx context.Context, entryID int64, draft model.VaultEntryDraft) (model.VaultEntry, error) {
	request := map[string]interface{}{
		"entity_id": draft.EntityID,
		"testimony": strings.TrimSpace(draft.Testimony),
		"is_public": draft.IsPublic,
	}

	response := vaultEntryDTO{}
	path := "/vault-entries/" + strconv.FormatInt(entryID, 10)
	if err := r.client.DoJSON(ctx, http.MethodPatch, path, request, &response); err != nil {
		return model.VaultEntry{}, err
	}
	return response.toModel(), nil
}

func (r *VaultRepo) SetVisibility(ctx context.Context, entryID int64, public bool) error {
	request := map[string]bool{"is_public": public}
	path := "/vault-entries/" + strconv.FormatInt(entryID, 10) + "/visibility"
	return r.client.DoJSON(ctx, http.MethodPatch, path, request, nil)
}

type UploadEvidenceInput struct {
	VaultEntryID int64
	FileName     string
	Body         io.Reader
	Description  string
	Location     string
	BatchID      string
}

func (r *VaultRepo) UploadEvidence(ctx context.Context, input UploadEvidenceInput) (model.Evidence, error) {
	fields := map[string]string{
		"vault_entry_id": strconv.FormatInt(input.VaultEntryID, 10),
		"description":    strings.TrimSpace(input.Description),
	}
	if strings.TrimSpace(input.Location) != "" {
		fields["location"] = strings.TrimSpace(input.Location)
	}
	if strings.TrimSpace(input.BatchID) != "" {
		fields["batch_id"] = strings.TrimSpace(input.BatchID)
	}

	response := evidenceDTO{}
	if err := r.client.UploadMultipart(ctx, "/vault", input.FileName, input.Body, fields, &response); err != nil {
		return model.Evidence{}, err
	}
	return response.toModel(), nil
}

type vaultEntryDTO struct {
	ID          int64      `json:"id"`
	EntityID    int64      `json:"entity_id"`
	Testimony   string     `json:"testimony"`
	IsPublic    bool       `json:"is_public"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (dto vaultEntryDTO) toModel() model.VaultEntry {
	return model.VaultEntry{
		ID:          dto.ID,
		EntityID:    dto.EntityID,
		Testimony:   strings.TrimSpace(dto.Testimony),
		IsPublic:    dto.IsPublic,
		PublishedAt: dto.PublishedAt,
		CreatedAt:   dto.CreatedAt,
	}
}

type evidenceDTO struct {
	ID           int64     `json:"id"`
	VaultEntryID int64     `json:"vault_entry_id"`
	BlobURL      string    `json:"blob_url"`
	BlobKey      string    `json:"blob_key"`
	ContentType  string    `json:"content_type"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
}

func (dto evidenceDTO) toModel() model.Evidence {
	tags := make([]string, 0, len(dto.Tags))
	for _, tag := range dto.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		tags = append(tags, trimmed)
	}

	return model.Evidence{
		ID:           dto.ID,
		VaultEntryID: dto.VaultEntryID,
		BlobURL:      strings.TrimSpace(dto.BlobURL),
		BlobKey:      strings.TrimSpace(dto.BlobKey),
		ContentType:  strings.TrimSpace(dto.ContentType),
		Description:  strings.TrimSpace(dto.Description),
		Tags:         tags,
		Location:     strings.TrimSpace(dto.Location),
		CreatedAt:    dto.CreatedAt,
	}
}

type feedItemDTO struct {
	Entry      vaultEntryDTO `json:"entry"`
	EntityName string        `json:"entity_name"`
	State      string        `json:"state"`
	County     string        `json:"county"`
	Evidence   []evidenceDTO `json:"evidence"`
}

func (dto feedItemDTO) toModel() model.FeedItem {
	evidence := make([]model.Evidence, 0, len(dto.Evidence))
	for _, e := range dto.Evidence {
		evidence = append(evidence, e.toModel())
	}

	return model.FeedItem{
		Entry:      dto.Entry.toModel(),
		EntityName: strings.TrimSpace(dto.EntityName),
		State:      strings.TrimSpace(dto.State),
		County:     strings.TrimSpace(dto.County),
		Evidence:   evidence,
	}
}
