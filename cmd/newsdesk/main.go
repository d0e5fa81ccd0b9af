// Newsdesk — сервис автопубликации запланированных статей.
//
// Процесс:
//   - Поднимает пул Postgres и применяет миграции
//   - Запускает цикл scheduler'а (частота из scheduler_settings)
//   - Обслуживает админку и CMS по HTTP
//   - Публикует article.published в RabbitMQ, если AMQP включён
//
// Несколько экземпляров безопасны: публикация идёт через CAS в БД.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Newsdesk/internal/api"
	"github.com/shaiso/Newsdesk/internal/config"
	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/mq"
	"github.com/shaiso/Newsdesk/internal/repo"
	"github.com/shaiso/Newsdesk/internal/scheduler"
	"github.com/shaiso/Newsdesk/internal/settings"
	"github.com/shaiso/Newsdesk/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("newsdesk")
	logger.Info("starting newsdesk")

	cfg := config.Load(logger)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.Migrate(pool, logger); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	articleRepo := repo.NewArticleRepo(pool)
	settingsSvc := settings.New(repo.NewSettingsRepo(pool), logger)

	healthChecks := map[string]api.HealthCheck{
		"database": pool.Ping,
	}

	// RabbitMQ (опционально). Без него статьи публикуются, события не отправляются.
	var events scheduler.EventPublisher
	if cfg.AMQP.Enabled {
		mqConn, err := mq.Dial(cfg.AMQP.URL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, article.published events disabled", "error", err)
		} else {
			defer mqConn.Close()

			if err := mq.DefaultTopology().Declare(ctx, mqConn); err != nil {
				logger.Warn("failed to declare topology", "error", err)
			}
			events = mq.NewPublisher(mqConn, logger)
			healthChecks["amqp"] = func(context.Context) error {
				if !mqConn.IsConnected() {
					return mq.ErrNoChannel
				}
				return nil
			}
			logger.Info("RabbitMQ connected")
		}
	}

	sched := scheduler.New(scheduler.Config{
		Articles:     articleRepo,
		Settings:     settingsSvc,
		Publisher:    events,
		Logger:       logger,
		StoreTimeout: cfg.Scheduler.StoreTimeout,
		BatchSize:    cfg.Scheduler.BatchSize,
	})
	settingsSvc.Subscribe(func(domain.SchedulerSettings) { sched.Reload() })

	handler := api.NewHandler(api.Config{
		Settings:     settingsSvc,
		Scheduler:    sched,
		Articles:     articleRepo,
		HealthChecks: healthChecks,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}

	sched.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}

	sched.Stop()
	logger.Info("newsdesk stopped")
}
