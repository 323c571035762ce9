package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

type Repo interface {
	Save(context.Context, model.AuditRecord) error
	ListRecent(context.Context, int) ([]model.AuditRecord, error)
}

type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

type Decision struct {
	ActorTgID int64
	ActorRole enums.Role
	Domain    string
	TargetID  int64
	Decision  string
	Reason    string
	Duration  time.Duration
}

func (s *Service) Record(ctx context.Context, decision Decision) error {
	if s.repo == nil {
		return nil
	}

	return s.repo.Save(ctx, model.AuditRecord{
		ID:         uuid.NewString(),
		ActorTgID:  decision.ActorTgID,
		ActorRole:  decision.ActorRole,
		Domain:     decision.Domain,
		TargetID:   decision.TargetID,
		Decision:   decision.Decision,
		Reason:     decision.Reason,
		DurationMS: decision.Duration.Milliseconds(),
		CreatedAt:  s.now().UTC(),
	})
}

func (s *Service) History(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	if s.repo == nil {
		return []model.AuditRecord{}, nil
	}
	return s.repo.ListRecent(ctx, limit)
}
