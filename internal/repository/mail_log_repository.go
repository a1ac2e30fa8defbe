package repository

import (
	"context"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MailLogRepository struct {
	db *gorm.DB
}

func NewMailLogRepository(db *gorm.DB) *MailLogRepository {
	return &MailLogRepository{db}
}

func (r *MailLogRepository) Create(ctx context.Context, log *model.MailLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByApplicationIDs returns logs for the given applications with their
// template, most recent first.
func (r *MailLogRepository) FindByApplicationIDs(ctx context.Context, ids []uuid.UUID) ([]model.MailLog, error) {
	var logs []model.MailLog
	if len(ids) == 0 {
		return logs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("EmailTemplate").
		Where("application_id IN ?", ids).
		Order("sent_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *MailLogRepository) List(ctx context.Context, page, pageSize int) ([]model.MailLog, int64, error) {
	var (
		logs  []model.MailLog
		total int64
	)
	db := r.db.WithContext(ctx).Model(&model.MailLog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("EmailTemplate").
		Order("sent_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}
