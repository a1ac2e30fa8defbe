package repository

import (
	"context"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db}
}

// FindByID loads the application with its applicant and job.
func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Preload("Applicant").
		Preload("Job").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &app, nil
}

// FindSiblings returns every application of the applicant to the job, newest first.
func (r *ApplicationRepository) FindSiblings(ctx context.Context, applicantID, jobID uuid.UUID) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Where("applicant_id = ? AND job_id = ?", applicantID, jobID).
		Order("submitted_at DESC").
		Find(&apps).Error
	return apps, err
}

// ListDeliveryState loads the columns reconciliation needs for every application.
func (r *ApplicationRepository) ListDeliveryState(ctx context.Context) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Select("id", "applicant_id", "job_id", "email_sent", "submitted_at").
		Order("applicant_id, job_id, submitted_at DESC").
		Find(&apps).Error
	return apps, err
}

// MarkPairNotified flips the optimistic flag on every sibling application.
func (r *ApplicationRepository) MarkPairNotified(ctx context.Context, applicantID, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("applicant_id = ? AND job_id = ? AND email_sent = ?", applicantID, jobID, false).
		Update("email_sent", true).Error
}

func (r *ApplicationRepository) SetNotified(ctx context.Context, ids []uuid.UUID, notified bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id IN ?", ids).
		Update("email_sent", notified)
	return res.RowsAffected, res.Error
}

func (r *ApplicationRepository) SetScoringStatus(ctx context.Context, id uuid.UUID, status model.ScoringStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Update("scoring_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// WithPairLock runs fn while holding a transaction-scoped advisory lock keyed by
// the (applicant, job) pair. Other holders of the same key block until fn returns.
func (r *ApplicationRepository) WithPairLock(ctx context.Context, applicantID, jobID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("notify:%s:%s", applicantID, jobID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
			return fmt.Errorf("acquire pair lock: %w", err)
		}
		return fn(ctx)
	})
}
