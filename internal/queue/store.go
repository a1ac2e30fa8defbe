package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is the stored, payload-agnostic form of a job.
type Record struct {
	ID          uuid.UUID
	Queue       string
	Payload     []byte
	Attempt     int
	MaxAttempts int
	Backoff     Backoff
	EnqueuedAt  time.Time
	RunAt       time.Time
	LastError   string
}

// Store persists jobs between enqueue and completion.
//
// Claim returns (nil, nil) when nothing is runnable. A claimed job is leased
// until now+lease; once the lease expires without Complete/Retry/Bury the job
// becomes claimable again, which is what makes delivery at-least-once.
//
// Release hands a claimed job back without charging the attempt it was
// claimed for.
type Store interface {
	Insert(ctx context.Context, rec *Record) error
	Claim(ctx context.Context, queue string, now time.Time, lease time.Duration) (*Record, error)
	Complete(ctx context.Context, id uuid.UUID) error
	Retry(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string) error
	Bury(ctx context.Context, id uuid.UUID, lastErr string) error
	Release(ctx context.Context, id uuid.UUID, runAt time.Time) error
}
