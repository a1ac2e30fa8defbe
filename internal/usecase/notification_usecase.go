package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/fadilmartias/fasthire/internal/mailtemplate"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationPayload is the queued unit of work for the delivery worker.
// The content is rendered when the send is requested.
type NotificationPayload struct {
	ApplicationID uuid.UUID  `json:"application_id"`
	ApplicantID   uuid.UUID  `json:"applicant_id"`
	JobID         uuid.UUID  `json:"job_id"`
	TemplateID    uuid.UUID  `json:"template_id"`
	TemplateName  string     `json:"template_name"`
	Result        bool       `json:"result"`
	Recipient     string     `json:"recipient"`
	Subject       string     `json:"subject"`
	HTML          string     `json:"html"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
}

type SendRequest struct {
	TemplateID uuid.UUID
	CreatedBy  *uuid.UUID
	Interview  mailtemplate.Interview
	// MarkAsSent flips the delivery flag on the pair's applications once the
	// result email is queued.
	MarkAsSent bool
}

type SendReceipt struct {
	ApplicationID uuid.UUID `json:"application_id"`
	TemplateName  string    `json:"template_name"`
	Recipient     string    `json:"recipient"`
	QueueJobID    uuid.UUID `json:"queue_job_id"`
}

type ItemOutcome struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Reason        string    `json:"reason"`
}

type BulkResult struct {
	Successful int           `json:"successful"`
	Skipped    []ItemOutcome `json:"skipped"`
	Failed     []ItemOutcome `json:"failed"`
}

const reasonDuplicateInBatch = "duplicate applicant and job in this batch"

type pairKey struct {
	applicantID uuid.UUID
	jobID       uuid.UUID
}

type NotificationUsecase struct {
	apps      ApplicationRepository
	templates TemplateRepository
	logs      MailLogRepository
	queue     NotificationQueue
	checker   *deliveryChecker
	logger    *zap.Logger
}

func NewNotificationUsecase(apps ApplicationRepository, templates TemplateRepository, logs MailLogRepository, queue NotificationQueue, log *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{
		apps:      apps,
		templates: templates,
		logs:      logs,
		queue:     queue,
		checker:   &deliveryChecker{apps: apps, logs: logs},
		logger:    logger.WithFields(log),
	}
}

// HasQualifyingDelivery reports the most recent result email delivered for
// the pair, falling back to the delivery flags when the log has none.
func (uc *NotificationUsecase) HasQualifyingDelivery(ctx context.Context, applicantID, jobID uuid.UUID) (DeliveryStatus, error) {
	return uc.checker.check(ctx, applicantID, jobID, true)
}

func (uc *NotificationUsecase) SendSingleNotification(ctx context.Context, applicationID uuid.UUID, req SendRequest) (*SendReceipt, error) {
	tpl, err := uc.loadTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	app, err := uc.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return uc.send(ctx, app, tpl, req)
}

// SendBulkNotifications queues the template for every application in order.
// A pair already handled earlier in the call or already notified is skipped;
// per-item errors are recorded and never abort the batch.
func (uc *NotificationUsecase) SendBulkNotifications(ctx context.Context, applicationIDs []uuid.UUID, req SendRequest) (*BulkResult, error) {
	tpl, err := uc.loadTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	res := &BulkResult{Skipped: []ItemOutcome{}, Failed: []ItemOutcome{}}
	seen := make(map[pairKey]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		if ctx.Err() != nil {
			res.Failed = append(res.Failed, ItemOutcome{ApplicationID: id, Reason: ctx.Err().Error()})
			continue
		}

		app, err := uc.loadApplication(ctx, id)
		if err != nil {
			res.Failed = append(res.Failed, ItemOutcome{ApplicationID: id, Reason: err.Error()})
			continue
		}

		pair := pairKey{app.ApplicantID, app.JobID}
		if seen[pair] {
			res.Skipped = append(res.Skipped, ItemOutcome{ApplicationID: id, Reason: reasonDuplicateInBatch})
			continue
		}
		seen[pair] = true

		_, err = uc.send(ctx, app, tpl, req)
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			res.Skipped = append(res.Skipped, ItemOutcome{ApplicationID: id, Reason: conflict.Error()})
		case err != nil:
			uc.logger.Error("bulk notification item failed",
				zap.String(logger.FieldApplicationID, id.String()), zap.Error(err))
			res.Failed = append(res.Failed, ItemOutcome{ApplicationID: id, Reason: err.Error()})
		default:
			res.Successful++
		}
	}

	uc.logger.Info("bulk notification processed",
		zap.String(logger.FieldTemplate, tpl.Name),
		zap.Int("requested", len(applicationIDs)),
		zap.Int("successful", res.Successful),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

func (uc *NotificationUsecase) PreviewNotification(ctx context.Context, applicationID, templateID uuid.UUID, interview mailtemplate.Interview) (*mailtemplate.Message, error) {
	tpl, err := uc.loadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	app, err := uc.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	msg := uc.render(app, tpl, interview)
	return &msg, nil
}

// DeliveryLogsForPair returns every log of the pair's applications, newest first.
func (uc *NotificationUsecase) DeliveryLogsForPair(ctx context.Context, applicantID, jobID uuid.UUID) ([]model.MailLog, error) {
	apps, err := uc.apps.FindSiblings(ctx, applicantID, jobID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(apps))
	for i, a := range apps {
		ids[i] = a.ID
	}
	logs, err := uc.logs.FindByApplicationIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortLogsNewestFirst(logs)
	return logs, nil
}

func (uc *NotificationUsecase) ListDeliveryLogs(ctx context.Context, page, pageSize int) ([]model.MailLog, int64, error) {
	return uc.logs.List(ctx, page, pageSize)
}

func (uc *NotificationUsecase) send(ctx context.Context, app *model.Application, tpl *model.EmailTemplate, req SendRequest) (*SendReceipt, error) {
	if app.Applicant == nil || app.Applicant.Email == "" {
		return nil, ErrRecipientMissing
	}

	msg := uc.render(app, tpl, req.Interview)
	payload := NotificationPayload{
		ApplicationID: app.ID,
		ApplicantID:   app.ApplicantID,
		JobID:         app.JobID,
		TemplateID:    tpl.ID,
		TemplateName:  tpl.Name,
		Result:        !tpl.IsAcknowledgement(),
		Recipient:     app.Applicant.Email,
		Subject:       msg.Subject,
		HTML:          msg.HTML,
		CreatedBy:     req.CreatedBy,
	}
	receipt := &SendReceipt{ApplicationID: app.ID, TemplateName: tpl.Name, Recipient: payload.Recipient}
	log := logger.WithFields(uc.logger,
		zap.String(logger.FieldApplicationID, app.ID.String()),
		zap.String(logger.FieldApplicantID, app.ApplicantID.String()),
		zap.String(logger.FieldJobID, app.JobID.String()),
		zap.String(logger.FieldTemplate, tpl.Name))

	if !payload.Result {
		id, err := uc.queue.Enqueue(ctx, payload)
		if err != nil {
			return nil, err
		}
		receipt.QueueJobID = id
		log.Info("acknowledgement queued")
		return receipt, nil
	}

	err := uc.apps.WithPairLock(ctx, app.ApplicantID, app.JobID, func(ctx context.Context) error {
		status, err := uc.checker.check(ctx, app.ApplicantID, app.JobID, true)
		if err != nil {
			return err
		}
		if status.Received {
			return status.conflict()
		}

		id, err := uc.queue.Enqueue(ctx, payload)
		if err != nil {
			return err
		}
		receipt.QueueJobID = id

		if req.MarkAsSent {
			if err := uc.apps.MarkPairNotified(ctx, app.ApplicantID, app.JobID); err != nil {
				log.Warn("delivery flag not updated", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("result notification queued")
	return receipt, nil
}

func (uc *NotificationUsecase) render(app *model.Application, tpl *model.EmailTemplate, interview mailtemplate.Interview) mailtemplate.Message {
	ctx := mailtemplate.NewContext(app)
	ctx.Interview = interview
	return mailtemplate.RenderTemplate(tpl, ctx)
}

func (uc *NotificationUsecase) loadApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	app, err := uc.apps.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, id)
	}
	return app, err
}

func (uc *NotificationUsecase) loadTemplate(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error) {
	tpl, err := uc.templates.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tpl, err
}
