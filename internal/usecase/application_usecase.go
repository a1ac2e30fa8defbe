package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/fadilmartias/fasthire/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Notifier interface {
	SendSingleNotification(ctx context.Context, applicationID uuid.UUID, req SendRequest) (*SendReceipt, error)
}

type SubmitReceipt struct {
	ApplicationID uuid.UUID           `json:"application_id"`
	ScoringStatus model.ScoringStatus `json:"scoring_status"`
	QueueJobID    uuid.UUID           `json:"queue_job_id"`
	CVPages       int                 `json:"cv_pages"`
	Acknowledged  bool                `json:"acknowledged"`
}

type ApplicationUsecase struct {
	apps      ApplicationRepository
	templates TemplateRepository
	cvQueue   CVMatchingQueue
	notifier  Notifier
	inspectCV func(path string) (int, error)
	logger    *zap.Logger
}

func NewApplicationUsecase(apps ApplicationRepository, templates TemplateRepository, cvQueue CVMatchingQueue, notifier Notifier, log *zap.Logger) *ApplicationUsecase {
	return &ApplicationUsecase{
		apps:      apps,
		templates: templates,
		cvQueue:   cvQueue,
		notifier:  notifier,
		inspectCV: util.InspectPDF,
		logger:    logger.WithFields(log),
	}
}

// Submit queues CV scoring for the application and, when the template exists,
// an "Application Received" acknowledgement.
func (uc *ApplicationUsecase) Submit(ctx context.Context, applicationID uuid.UUID) (*SubmitReceipt, error) {
	app, err := uc.apps.FindByID(ctx, applicationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
	}
	if err != nil {
		return nil, err
	}
	log := logger.WithFields(uc.logger,
		zap.String(logger.FieldApplicationID, app.ID.String()),
		zap.String(logger.FieldJobID, app.JobID.String()))

	pages, err := uc.inspectCV(app.CVFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCV, err)
	}

	// Status goes first so a fast worker cannot finish before it is set.
	previous := app.ScoringStatus
	if err := uc.apps.SetScoringStatus(ctx, app.ID, model.ScoringQueued); err != nil {
		return nil, fmt.Errorf("mark application scoring: %w", err)
	}
	jobID, err := uc.cvQueue.Enqueue(ctx, CVMatchingPayload{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		CVFile:        app.CVFile,
	})
	if err != nil {
		if rerr := uc.apps.SetScoringStatus(context.WithoutCancel(ctx), app.ID, previous); rerr != nil {
			log.Error("scoring status not restored", zap.Error(rerr))
		}
		return nil, err
	}
	log.Info("cv matching queued", zap.String(logger.FieldQueueJobID, jobID.String()), zap.Int("cv_pages", pages))

	receipt := &SubmitReceipt{
		ApplicationID: app.ID,
		ScoringStatus: model.ScoringQueued,
		QueueJobID:    jobID,
		CVPages:       pages,
	}
	receipt.Acknowledged = uc.acknowledge(ctx, log, app.ID)
	return receipt, nil
}

func (uc *ApplicationUsecase) acknowledge(ctx context.Context, log *zap.Logger, applicationID uuid.UUID) bool {
	tpl, err := uc.templates.FindByName(ctx, model.TemplateApplicationReceived)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn("acknowledgement template lookup failed", zap.Error(err))
		}
		return false
	}
	if _, err := uc.notifier.SendSingleNotification(ctx, applicationID, SendRequest{TemplateID: tpl.ID}); err != nil {
		log.Warn("acknowledgement not queued", zap.Error(err))
		return false
	}
	return true
}
