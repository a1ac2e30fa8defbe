package config

import (
	"sync"
	"time"
)

// QueueConfig holds worker pool settings shared by the CV-matching and
// notification queues. CVRate/CVRateWindow bound job starts on the CV queue only.
type QueueConfig struct {
	Driver          string
	CVConcurrency   int
	MailConcurrency int
	CVRate          int
	CVRateWindow    time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	PollInterval    time.Duration
	Lease           time.Duration
}

var (
	queueConfig *QueueConfig
	queueOnce   sync.Once
)

func LoadQueueConfig() *QueueConfig {
	queueOnce.Do(func() {
		v := Env()
		v.SetDefault("QUEUE_DRIVER", "postgres")
		v.SetDefault("QUEUE_CV_CONCURRENCY", 2)
		v.SetDefault("QUEUE_MAIL_CONCURRENCY", 2)
		v.SetDefault("QUEUE_CV_RATE", 5)
		v.SetDefault("QUEUE_CV_RATE_WINDOW", time.Second)
		v.SetDefault("QUEUE_MAX_ATTEMPTS", 3)
		v.SetDefault("QUEUE_BACKOFF_BASE", time.Second)
		v.SetDefault("QUEUE_BACKOFF_MAX", time.Minute)
		v.SetDefault("QUEUE_POLL_INTERVAL", 500*time.Millisecond)
		v.SetDefault("QUEUE_LEASE", 5*time.Minute)

		queueConfig = &QueueConfig{
			Driver:          v.GetString("QUEUE_DRIVER"),
			CVConcurrency:   v.GetInt("QUEUE_CV_CONCURRENCY"),
			MailConcurrency: v.GetInt("QUEUE_MAIL_CONCURRENCY"),
			CVRate:          v.GetInt("QUEUE_CV_RATE"),
			CVRateWindow:    v.GetDuration("QUEUE_CV_RATE_WINDOW"),
			MaxAttempts:     v.GetInt("QUEUE_MAX_ATTEMPTS"),
			BackoffBase:     v.GetDuration("QUEUE_BACKOFF_BASE"),
			BackoffMax:      v.GetDuration("QUEUE_BACKOFF_MAX"),
			PollInterval:    v.GetDuration("QUEUE_POLL_INTERVAL"),
			Lease:           v.GetDuration("QUEUE_LEASE"),
		}
	})
	return queueConfig
}
