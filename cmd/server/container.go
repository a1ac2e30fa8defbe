package main

import (
	"context"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/fadilmartias/fasthire/internal/service"
	"github.com/fadilmartias/fasthire/internal/usecase"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	cvMatchingQueue   = "cv-matching"
	notificationQueue = "notification"
)

// container holds the wired dependency graph shared by the commands.
type container struct {
	db  *gorm.DB
	log *zap.Logger

	apps      *repository.ApplicationRepository
	logs      *repository.MailLogRepository
	templates *repository.TemplateRepository

	cvQueue   *queue.Queue[usecase.CVMatchingPayload]
	mailQueue *queue.Queue[usecase.NotificationPayload]

	applications   *usecase.ApplicationUsecase
	keywords       *usecase.KeywordUsecase
	notifications  *usecase.NotificationUsecase
	delivery       *usecase.DeliveryUsecase
	cvMatching     *usecase.CVMatchingUsecase
	reconciliation *usecase.ReconciliationUsecase
}

func newContainer(ctx context.Context, log *zap.Logger) (*container, error) {
	db, err := ConnectDB(log)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db, log); err != nil {
		return nil, err
	}

	c := &container{
		db:        db,
		log:       log,
		apps:      repository.NewApplicationRepository(db),
		logs:      repository.NewMailLogRepository(db),
		templates: repository.NewTemplateRepository(db),
	}
	matching := repository.NewMatchingRepository(db)
	jdKeywords := repository.NewJDKeywordRepository(db)
	jobs := repository.NewJobRepository(db)

	qc := config.LoadQueueConfig()
	store, err := newQueueStore(qc, db)
	if err != nil {
		return nil, err
	}
	defaults := []queue.Option{
		queue.WithMaxAttempts(qc.MaxAttempts),
		queue.WithBackoff(queue.Backoff{Base: qc.BackoffBase, Max: qc.BackoffMax}),
	}
	c.cvQueue = queue.New[usecase.CVMatchingPayload](store, queue.Config{
		Name:         cvMatchingQueue,
		Concurrency:  qc.CVConcurrency,
		PollInterval: qc.PollInterval,
		Lease:        qc.Lease,
		Limiter:      queue.NewRateLimit(qc.CVRate, qc.CVRateWindow),
		Defaults:     defaults,
	}, log)
	c.mailQueue = queue.New[usecase.NotificationPayload](store, queue.Config{
		Name:         notificationQueue,
		Concurrency:  qc.MailConcurrency,
		PollInterval: qc.PollInterval,
		Lease:        qc.Lease,
		Defaults:     defaults,
	}, log)

	scorerCfg := config.LoadScorerConfig()
	parser, err := newJDParser(ctx, scorerCfg, log)
	if err != nil {
		return nil, err
	}
	mailCfg := config.LoadMailConfig()
	mailer, err := service.NewMailer(mailCfg)
	if err != nil {
		return nil, err
	}

	c.notifications = usecase.NewNotificationUsecase(c.apps, c.templates, c.logs, c.mailQueue, log)
	c.applications = usecase.NewApplicationUsecase(c.apps, c.templates, c.cvQueue, c.notifications, log)
	c.keywords = usecase.NewKeywordUsecase(jobs, jdKeywords, parser, log)
	c.delivery = usecase.NewDeliveryUsecase(c.apps, c.logs, mailer, mailCfg.From, log)
	c.cvMatching = usecase.NewCVMatchingUsecase(matching, jdKeywords, service.NewScorerService(scorerCfg), log)
	c.reconciliation = usecase.NewReconciliationUsecase(c.apps, c.logs, log)

	c.cvQueue.OnExhausted(c.cvMatching.OnExhausted)
	return c, nil
}

func newQueueStore(qc *config.QueueConfig, db *gorm.DB) (queue.Store, error) {
	switch qc.Driver {
	case "postgres", "":
		return queue.NewGormStore(db), nil
	case "memory":
		return queue.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", qc.Driver)
	}
}

func newJDParser(ctx context.Context, cfg *config.ScorerConfig, log *zap.Logger) (service.JDParserInterface, error) {
	switch cfg.ParserDriver {
	case "http", "":
		return service.NewJDParserService(cfg), nil
	case "gemini":
		gemini, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), log)
		if err != nil {
			return nil, err
		}
		return service.NewGeminiJDParser(gemini), nil
	default:
		return nil, fmt.Errorf("unknown parser driver %q", cfg.ParserDriver)
	}
}

// runWorkers blocks until ctx is cancelled or a pool fails.
func (c *container) runWorkers(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.cvQueue.Run(gCtx, c.cvMatching.Handle) })
	g.Go(func() error { return c.mailQueue.Run(gCtx, c.delivery.Handle) })
	return g.Wait()
}

func (c *container) close() {
	if sqlDB, err := c.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
