package queue

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = time.Minute
)

// Backoff is an exponential retry policy: attempt n waits Base * 2^(n-1),
// never more than Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = DefaultBackoffBase
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}

// Options control a single enqueue.
type Options struct {
	MaxAttempts int
	Backoff     Backoff
	Delay       time.Duration
}

type Option func(*Options)

func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(o *Options) {
		o.Backoff = b
	}
}

// WithDelay postpones the first run.
func WithDelay(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Delay = d
		}
	}
}

func defaultOptions() Options {
	return Options{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     Backoff{Base: DefaultBackoffBase, Max: DefaultBackoffMax},
	}
}

// Job is a claimed unit of work handed to a Handler. Attempt is 1 on the
// first run and increases every time the job is claimed again.
type Job[P any] struct {
	ID          uuid.UUID
	Queue       string
	Payload     P
	Attempt     int
	MaxAttempts int
	Backoff     Backoff
	EnqueuedAt  time.Time
}

// LastAttempt reports whether a failure now exhausts the job.
func (j *Job[P]) LastAttempt() bool {
	return j.Attempt >= j.MaxAttempts
}
