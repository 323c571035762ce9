package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"civiclens_bot/internal/domain/model"
	"civiclens_bot/internal/repo/civichttp"
)

const signedURLTTL = 5 * time.Minute

var ErrValidation = errors.New("validation error")

type Repo interface {
	ListMine(context.Context) ([]model.VaultEntry, error)
	Feed(context.Context) ([]model.FeedItem, error)
	Create(context.Context, model.VaultEntryDraft) (model.VaultEntry, error)
	Update(ctx context.Context, entryID int64, draft model.VaultEntryDraft) (model.VaultEntry, error)
	SetVisibility(ctx context.Context, entryID int64, public bool) error
	UploadEvidence(context.Context, civichttp.UploadEvidenceInput) (model.Evidence, error)
}

type URLSigner interface {
	PresignGet(context.Context, string, time.Duration) (string, error)
}

type Service struct {
	repo   Repo
	signer URLSigner
	now    func() time.Time
}

func NewService(repo Repo, signer URLSigner) *Service {
	return &Service{
		repo:   repo,
		signer: signer,
		now:    time.Now,
	}
}

// CreateEntry is phase one of the two-phase flow: the entry must exist
// before any evidence can reference its id.
func (s *Service) CreateEntry(ctx context.Context, draft model.VaultEntryDraft) (model.VaultEntry, error) {
	if strings.TrimSpace(draft.Testimony) == "" {
		return model.VaultEntry{}, fmt.Errorf("%w: testimony is required", ErrValidation)
	}
	return s.repo.Create(ctx, draft)
}

func (s *Service) UpdateEntry(ctx context.Context, entryID int64, draft model.VaultEntryDraft) (model.VaultEntry, error) {
	if entryID <= 0 {
		return model.VaultEntry{}, fmt.Errorf("%w: invalid entry id", ErrValidation)
	}
	if strings.TrimSpace(draft.Testimony) == "" {
		return model.VaultEntry{}, fmt.Errorf("%w: testimony is required", ErrValidation)
	}
	return s.repo.Update(ctx, entryID, draft)
}

func (s *Service) ListMine(ctx context.Context) ([]model.VaultEntry, error) {
	return s.repo.ListMine(ctx)
}

type BatchFile struct {
	Name string
	Body io.Reader
}

type FileFailure struct {
	Name string
	Err  error
}

type BatchResult struct {
	BatchID  string
	Uploaded []model.Evidence
	Failed   []FileFailure
}

// UploadBatch is phase two: files upload sequentially, each as an
// independent multipart request sharing one note. A mid-batch failure does
// not roll back earlier successes; the result reports both sides.
func (s *Service) UploadBatch(ctx context.Context, entryID int64, files []BatchFile, note, location string) (BatchResult, error) {
	if entryID <= 0 {
		return BatchResult{}, fmt.Errorf("%w: vault entry must be created before attaching evidence", ErrValidation)
	}
	if len(files) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no files selected", ErrValidation)
	}

	result := BatchResult{BatchID: uuid.NewString()}
	for _, file := range files {
		evidence, err := s.repo.UploadEvidence(ctx, civichttp.UploadEvidenceInput{
			VaultEntryID: entryID,
			FileName:     file.Name,
			Body:         file.Body,
			Description:  strings.TrimSpace(note),
			Location:     strings.TrimSpace(location),
			BatchID:      result.BatchID,
		})
		if err != nil {
			result.Failed = append(result.Failed, FileFailure{Name: file.Name, Err: err})
			continue
		}
		result.Uploaded = append(result.Uploaded, evidence)
	}

	return result, nil
}

// ToggleVisibility patches the server and applies the change to the local
// copy optimistically, stamping published_at client-side on first publish.
func (s *Service) ToggleVisibility(ctx context.Context, entry model.VaultEntry, public bool) (model.VaultEntry, error) {
	if entry.ID <= 0 {
		return entry, fmt.Errorf("%w: invalid entry id", ErrValidation)
	}

	if err := s.repo.SetVisibility(ctx, entry.ID, public); err != nil {
		return entry, err
	}

	entry.IsPublic = public
	if public && entry.PublishedAt == nil {
		publishedAt := s.now().UTC()
		entry.PublishedAt = &publishedAt
	}
	return entry, nil
}

func (s *Service) Feed(ctx context.Context) ([]model.FeedItem, error) {
	return s.repo.Feed(ctx)
}

// PreviewURL resolves an evidence reference for display: absolute URLs pass
// through, bare storage keys get presigned.
func (s *Service) PreviewURL(ctx context.Context, evidence model.Evidence) (string, error) {
	ref := strings.TrimSpace(evidence.BlobURL)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	key := strings.TrimSpace(evidence.BlobKey)
	if key == "" {
		key = ref
	}
	if key == "" {
		return "", nil
	}
	if s.signer == nil {
		return "", fmt.Errorf("url signer is not configured")
	}
	return s.signer.PresignGet(ctx, key, signedURLTTL)
}

// FeedFilter is the state -> county cascade: switching state drops the
// chosen county, and county options always derive from the current state.
type FeedFilter struct {
	State  string
	County string
}

func (f *FeedFilter) SelectState(state string) {
	state = strings.TrimSpace(state)
	if state != f.State {
		f.County = ""
	}
	f.State = state
}

func (f *FeedFilter) SelectCounty(county string) {
	f.County = strings.TrimSpace(county)
}

func (f FeedFilter) Apply(items []model.FeedItem) []model.FeedItem {
	matched := make([]model.FeedItem, 0, len(items))
	for _, item := range items {
		if f.State != "" && !strings.EqualFold(item.State, f.State) {
			continue
		}
		if f.County != "" && !strings.EqualFold(item.County, f.County) {
			continue
		}
		matched = append(matched, item)
	}
	return matched
}

func States(items []model.FeedItem) []string {
	return uniqueSorted(items, func(item model.FeedItem) string { return item.State })
}

// Counties lists the county options for one state only.
func Counties(items []model.FeedItem, state string) []string {
	state = strings.TrimSpace(state)
	if state == "" {
		return []string{}
	}
	inState := make([]model.FeedItem, 0, len(items))
	for _, item := range items {
		if strings.EqualFold(item.State, state) {
			inState = append(inState, item)
		}
	}
	return uniqueSorted(inState, func(item model.FeedItem) string { return item.County })
}

func uniqueSorted(items []model.FeedItem, pick func(model.FeedItem) string) []string {
	seen := make(map[string]struct{}, len(items))
	values := make([]string, 0, len(items))
	for _, item := range items {
		value := strings.TrimSpace(pick(item))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
