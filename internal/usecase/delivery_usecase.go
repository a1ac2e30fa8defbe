package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/fadilmartias/fasthire/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryUsecase consumes notification jobs. A mail log row is written only
// after the transport accepted the message.
type DeliveryUsecase struct {
	apps    ApplicationRepository
	logs    MailLogRepository
	mailer  service.MailerInterface
	checker *deliveryChecker
	from    string
	logger  *zap.Logger
	now     func() time.Time
}

func NewDeliveryUsecase(apps ApplicationRepository, logs MailLogRepository, mailer service.MailerInterface, from string, log *zap.Logger) *DeliveryUsecase {
	return &DeliveryUsecase{
		apps:    apps,
		logs:    logs,
		mailer:  mailer,
		checker: &deliveryChecker{apps: apps, logs: logs},
		from:    from,
		logger:  logger.WithFields(log),
		now:     time.Now,
	}
}

// Handle is the notification queue handler.
func (uc *DeliveryUsecase) Handle(ctx context.Context, job *queue.Job[NotificationPayload]) error {
	p := job.Payload
	log := logger.WithFields(uc.logger,
		zap.String(logger.FieldQueueJobID, job.ID.String()),
		zap.String(logger.FieldApplicationID, p.ApplicationID.String()),
		zap.String(logger.FieldTemplate, p.TemplateName),
		zap.Int(logger.FieldAttempt, job.Attempt))

	if !p.Result {
		return uc.deliver(ctx, log, p)
	}

	// Result emails for one pair are delivered one at a time so the re-check
	// below sees any log written by a concurrent job.
	return uc.apps.WithPairLock(ctx, p.ApplicantID, p.JobID, func(ctx context.Context) error {
		status, err := uc.checker.check(ctx, p.ApplicantID, p.JobID, false)
		if err != nil {
			return err
		}
		if status.Received {
			log.Warn("result email already delivered, dropping job",
				zap.String("delivered_template", status.TemplateName),
				zap.Time("delivered_at", status.SentAt))
			return nil
		}
		return uc.deliver(ctx, log, p)
	})
}

func (uc *DeliveryUsecase) deliver(ctx context.Context, log *zap.Logger, p NotificationPayload) error {
	messageID, err := uc.mailer.Send(ctx, service.MailMessage{
		From:    uc.from,
		To:      p.Recipient,
		Subject: p.Subject,
		HTML:    p.HTML,
	})
	if err != nil {
		if !service.IsRetryable(err) {
			return queue.Permanent(err)
		}
		return err
	}

	var templateID *uuid.UUID
	if p.TemplateID != uuid.Nil {
		id := p.TemplateID
		templateID = &id
	}
	entry := &model.MailLog{
		ApplicationID:     p.ApplicationID,
		EmailTemplateID:   templateID,
		Subject:           p.Subject,
		Message:           p.HTML,
		Recipient:         p.Recipient,
		Sender:            uc.from,
		ProviderMessageID: messageID,
		SentAt:            uc.now(),
		CreatedBy:         p.CreatedBy,
	}
	// The mail is out; a retry here would send it twice.
	if err := uc.logs.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Error("mail sent but delivery log not written", zap.String("provider_message_id", messageID), zap.Error(err))
		return queue.Permanent(fmt.Errorf("record delivery: %w", err))
	}

	log.Info("email delivered", zap.String("recipient", p.Recipient), zap.String("provider_message_id", messageID))
	return nil
}
