package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/domain/fiber/handler"
	"github.com/fadilmartias/fasthire/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API together with the queue workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := newContainer(ctx, zlog)
			if err != nil {
				return err
			}
			defer c.close()

			app := newFiberApp(c)
			appConfig := config.LoadAppConfig()

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error { return c.runWorkers(gCtx) })
			g.Go(func() error {
				zlog.Info("server running", zap.String("port", appConfig.Port))
				return app.Listen(appConfig.Port)
			})
			g.Go(func() error {
				<-gCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return app.ShutdownWithContext(shutdownCtx)
			})
			go monitorGoroutines(gCtx)

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			zlog.Info("server stopped")
			return nil
		},
	}
}

func newFiberApp(c *container) *fiber.App {
	appConfig := config.LoadAppConfig()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}
			if code >= fiber.StatusInternalServerError {
				c.log.Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
			}
			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(*fiber.Ctx) bool {
			return appConfig.Env == "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, time.Minute))

	handler.NewApplicationHandler(c.applications, c.cvMatching).RegisterRoutes(app)
	handler.NewJobHandler(c.keywords).RegisterRoutes(app)
	handler.NewNotificationHandler(c.notifications, c.reconciliation).RegisterRoutes(app)
	return app
}

func monitorGoroutines(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			zlog.Debug("runtime stats", zap.Int("goroutines", runtime.NumGoroutine()))
		}
	}
}
