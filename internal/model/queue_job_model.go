package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QueueJobStatus string

const (
	QueueJobQueued  QueueJobStatus = "queued"
	QueueJobRunning QueueJobStatus = "running"
	QueueJobDead    QueueJobStatus = "dead"
)

// QueueJob is the durable row behind a queued job. Succeeded jobs are deleted.
type QueueJob struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Queue         string         `gorm:"type:varchar(64);not null;index:idx_queue_jobs_claim,priority:1"`
	Status        QueueJobStatus `gorm:"type:varchar(16);not null;index:idx_queue_jobs_claim,priority:2"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	Attempt       int            `gorm:"not null;default:0"`
	MaxAttempts   int            `gorm:"not null"`
	BackoffBaseMs int64          `gorm:"not null"`
	BackoffMaxMs  int64          `gorm:"not null"`
	RunAt         time.Time      `gorm:"not null;index:idx_queue_jobs_claim,priority:3"`
	LockedUntil   *time.Time
	LastError     string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *QueueJob) TableName() string {
	return "queue_jobs"
}
