package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Handler[P any] func(ctx context.Context, job *Job[P]) error

// ExhaustedFunc runs once a job is dropped, either because it used all of its
// attempts or because the handler returned a Permanent error.
type ExhaustedFunc[P any] func(ctx context.Context, job *Job[P], err error)

type Config struct {
	Name         string
	Concurrency  int
	PollInterval time.Duration
	Lease        time.Duration
	// Limiter, when set, gates every job start.
	Limiter  *rate.Limiter
	Defaults []Option
}

// NewRateLimit allows at most n starts in any window of the given length.
func NewRateLimit(n int, window time.Duration) *rate.Limiter {
	if n <= 0 || window <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(n)), 1)
}

type Queue[P any] struct {
	store       Store
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
	wake        chan struct{}
	onExhausted ExhaustedFunc[P]
}

func New[P any](store Store, cfg Config, log *zap.Logger) *Queue[P] {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	return &Queue[P]{
		store:  store,
		cfg:    cfg,
		logger: logger.WithFields(log, zap.String(logger.FieldQueue, cfg.Name)),
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
}

func (q *Queue[P]) Name() string {
	return q.cfg.Name
}

func (q *Queue[P]) OnExhausted(fn ExhaustedFunc[P]) {
	q.onExhausted = fn
}

// Enqueue stores the payload and returns once the store accepted it.
func (q *Queue[P]) Enqueue(ctx context.Context, payload P, opts ...Option) (uuid.UUID, error) {
	o := defaultOptions()
	for _, opt := range q.cfg.Defaults {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode %s payload: %w", q.cfg.Name, err)
	}

	now := q.now()
	rec := &Record{
		ID:          uuid.New(),
		Queue:       q.cfg.Name,
		Payload:     body,
		MaxAttempts: o.MaxAttempts,
		Backoff:     o.Backoff,
		EnqueuedAt:  now,
		RunAt:       now.Add(o.Delay),
	}
	if err := q.store.Insert(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s job: %w", q.cfg.Name, err)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}

	q.logger.Debug("job enqueued", zap.String(logger.FieldQueueJobID, rec.ID.String()))
	return rec.ID, nil
}

// Run starts Concurrency workers and blocks until ctx is cancelled.
func (q *Queue[P]) Run(ctx context.Context, handler Handler[P]) error {
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < q.cfg.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			q.work(gCtx, worker, handler)
			return nil
		})
	}
	q.logger.Info("queue workers started", zap.Int("workers", q.cfg.Concurrency))
	err := g.Wait()
	q.logger.Info("queue workers stopped")
	return err
}

func (q *Queue[P]) work(ctx context.Context, worker int, handler Handler[P]) {
	log := q.logger.With(zap.Int("worker", worker))
	for {
		if ctx.Err() != nil {
			return
		}
		if q.cfg.Limiter != nil {
			if err := q.cfg.Limiter.Wait(ctx); err != nil {
				return
			}
		}

		rec, err := q.store.Claim(ctx, q.cfg.Name, q.now(), q.cfg.Lease)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("claim failed", zap.Error(err))
			q.idle(ctx)
			continue
		}
		if rec == nil {
			q.idle(ctx)
			continue
		}

		q.process(ctx, log, rec, handler)
	}
}

func (q *Queue[P]) idle(ctx context.Context) {
	t := time.NewTimer(q.cfg.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-q.wake:
	case <-t.C:
	}
}

func (q *Queue[P]) process(ctx context.Context, log *zap.Logger, rec *Record, handler Handler[P]) {
	// bookkeeping must land even when shutdown cancels the handler
	bg := context.WithoutCancel(ctx)

	log = log.With(
		zap.String(logger.FieldQueueJobID, rec.ID.String()),
		zap.Int(logger.FieldAttempt, rec.Attempt),
		zap.Int(logger.FieldMaxAttempts, rec.MaxAttempts),
	)

	job := &Job[P]{
		ID:          rec.ID,
		Queue:       rec.Queue,
		Attempt:     rec.Attempt,
		MaxAttempts: rec.MaxAttempts,
		Backoff:     rec.Backoff,
		EnqueuedAt:  rec.EnqueuedAt,
	}
	if err := json.Unmarshal(rec.Payload, &job.Payload); err != nil {
		err = Permanent(fmt.Errorf("decode payload: %w", err))
		q.drop(bg, log, job, err)
		return
	}

	// a reclaimed lease can push the counter past the limit
	if job.MaxAttempts > 0 && job.Attempt > job.MaxAttempts {
		q.drop(bg, log, job, fmt.Errorf("attempt %d exceeds max attempts %d after lease expiry",
			job.Attempt, job.MaxAttempts))
		return
	}

	err := q.invoke(ctx, handler, job)
	if err != nil && ctx.Err() != nil {
		// shutdown interrupted the handler; the attempt is not charged
		if rerr := q.store.Release(bg, rec.ID, q.now()); rerr != nil {
			log.Error("release failed", zap.Error(rerr))
			return
		}
		log.Info("job released on shutdown", zap.Error(err))
		return
	}
	switch {
	case err == nil:
		if cerr := q.store.Complete(bg, rec.ID); cerr != nil {
			log.Error("complete failed", zap.Error(cerr))
			return
		}
		log.Debug("job completed")
	case IsPermanent(err) || job.LastAttempt():
		q.drop(bg, log, job, err)
	default:
		delay := job.Backoff.Delay(job.Attempt)
		if rerr := q.store.Retry(bg, rec.ID, q.now().Add(delay), err.Error()); rerr != nil {
			log.Error("schedule retry failed", zap.Error(rerr))
			return
		}
		log.Warn("job failed, retry scheduled", zap.Duration("backoff", delay), zap.Error(err))
	}
}

func (q *Queue[P]) drop(ctx context.Context, log *zap.Logger, job *Job[P], err error) {
	if berr := q.store.Bury(ctx, job.ID, err.Error()); berr != nil {
		log.Error("bury failed", zap.Error(berr))
	}
	log.Error("job dropped", zap.Bool("permanent", IsPermanent(err)), zap.Error(err))

	if q.onExhausted != nil {
		q.onExhausted(ctx, job, err)
	}
}

func (q *Queue[P]) invoke(ctx context.Context, handler Handler[P], job *Job[P]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}
