package usecase

import (
	"context"
	"encoding/json"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/google/uuid"
)

type ApplicationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindSiblings(ctx context.Context, applicantID, jobID uuid.UUID) ([]model.Application, error)
	ListDeliveryState(ctx context.Context) ([]model.Application, error)
	MarkPairNotified(ctx context.Context, applicantID, jobID uuid.UUID) error
	SetNotified(ctx context.Context, ids []uuid.UUID, notified bool) (int64, error)
	SetScoringStatus(ctx context.Context, id uuid.UUID, status model.ScoringStatus) error
	WithPairLock(ctx context.Context, applicantID, jobID uuid.UUID, fn func(ctx context.Context) error) error
}

type MailLogRepository interface {
	Create(ctx context.Context, log *model.MailLog) error
	FindByApplicationIDs(ctx context.Context, ids []uuid.UUID) ([]model.MailLog, error)
	List(ctx context.Context, page, pageSize int) ([]model.MailLog, int64, error)
}

type TemplateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error)
	FindByName(ctx context.Context, name string) (*model.EmailTemplate, error)
}

type MatchingRepository interface {
	WithinTx(ctx context.Context, fn func(w repository.MatchingWriter) error) error
	FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.MatchingRecord, error)
}

type JDKeywordRepository interface {
	ReplaceForJob(ctx context.Context, jobID uuid.UUID, categories map[string]json.RawMessage) error
	Profile(ctx context.Context, jobID uuid.UUID) (map[string][]json.RawMessage, error)
}

type JobRepository interface {
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error)
}

type CVMatchingQueue interface {
	Enqueue(ctx context.Context, payload CVMatchingPayload, opts ...queue.Option) (uuid.UUID, error)
}

type NotificationQueue interface {
	Enqueue(ctx context.Context, payload NotificationPayload, opts ...queue.Option) (uuid.UUID, error)
}
