package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNoJob = errors.New("no runnable job")

// GormStore keeps jobs in the queue_jobs table. Claims use
// FOR UPDATE SKIP LOCKED so concurrent workers never take the same row.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, rec *Record) error {
	row := model.QueueJob{
		ID:            rec.ID,
		Queue:         rec.Queue,
		Status:        model.QueueJobQueued,
		Payload:       rec.Payload,
		Attempt:       rec.Attempt,
		MaxAttempts:   rec.MaxAttempts,
		BackoffBaseMs: rec.Backoff.Base.Milliseconds(),
		BackoffMaxMs:  rec.Backoff.Max.Milliseconds(),
		RunAt:         rec.RunAt,
		CreatedAt:     rec.EnqueuedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) Claim(ctx context.Context, queue string, now time.Time, lease time.Duration) (*Record, error) {
	var row model.QueueJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("queue = ?", queue).
			Where("(status = ? AND run_at <= ?) OR (status = ? AND locked_until < ?)",
				model.QueueJobQueued, now, model.QueueJobRunning, now).
			Order("run_at, created_at").
			Limit(1).
			Find(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoJob
		}

		lockedUntil := now.Add(lease)
		row.Attempt++
		row.Status = model.QueueJobRunning
		row.LockedUntil = &lockedUntil
		return tx.Model(&model.QueueJob{}).Where("id = ?", row.ID).Updates(map[string]any{
			"status":       row.Status,
			"attempt":      row.Attempt,
			"locked_until": lockedUntil,
		}).Error
	})
	if errors.Is(err, errNoJob) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim %s job: %w", queue, err)
	}

	return &Record{
		ID:          row.ID,
		Queue:       row.Queue,
		Payload:     row.Payload,
		Attempt:     row.Attempt,
		MaxAttempts: row.MaxAttempts,
		Backoff: Backoff{
			Base: time.Duration(row.BackoffBaseMs) * time.Millisecond,
			Max:  time.Duration(row.BackoffMaxMs) * time.Millisecond,
		},
		EnqueuedAt: row.CreatedAt,
		RunAt:      row.RunAt,
		LastError:  row.LastError,
	}, nil
}

func (s *GormStore) Complete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.QueueJob{}, "id = ?", id).Error
}

func (s *GormStore) Retry(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).Where("id = ?", id).Updates(map[string]any{
		"status":       model.QueueJobQueued,
		"run_at":       runAt,
		"locked_until": nil,
		"last_error":   lastErr,
	}).Error
}

func (s *GormStore) Bury(ctx context.Context, id uuid.UUID, lastErr string) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).Where("id = ?", id).Updates(map[string]any{
		"status":       model.QueueJobDead,
		"locked_until": nil,
		"last_error":   lastErr,
	}).Error
}

func (s *GormStore) Release(ctx context.Context, id uuid.UUID, runAt time.Time) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).
		Where("id = ? AND status = ?", id, model.QueueJobRunning).
		Updates(map[string]any{
			"status":       model.QueueJobQueued,
			"run_at":       runAt,
			"locked_until": nil,
			"attempt":      gorm.Expr("GREATEST(attempt - 1, 0)"),
		}).Error
}
