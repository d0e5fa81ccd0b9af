// Newsdesk Notifier — потребитель событий article.published.
//
// Notifier:
//   - Читает очередь articles.published из RabbitMQ
//   - Пишет событие в лог и, если задан NOTIFIER_WEBHOOK_URL, отправляет webhook
//   - Неуспешную доставку повторяет один раз, затем отправляет в DLQ
//
// Notifier'ы масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Newsdesk/internal/config"
	"github.com/shaiso/Newsdesk/internal/mq"
	"github.com/shaiso/Newsdesk/internal/notifier"
	"github.com/shaiso/Newsdesk/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("newsdesk-notifier")
	logger.Info("starting newsdesk-notifier")

	cfg := config.Load(logger)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mqConn, err := mq.Dial(cfg.AMQP.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.DefaultTopology().Declare(ctx, mqConn); err != nil {
		logger.Error("failed to declare topology", "error", err)
		os.Exit(1)
	}

	sinks := []notifier.Sink{notifier.LogSink{Logger: logger}}
	if cfg.Notifier.WebhookURL != "" {
		sinks = append(sinks, notifier.NewWebhookSink(cfg.Notifier.WebhookURL, cfg.Notifier.WebhookTimeout))
		logger.Info("webhook delivery enabled", "url", cfg.Notifier.WebhookURL)
	}

	n := notifier.New(notifier.Config{
		Conn:     mqConn,
		Sinks:    sinks,
		Prefetch: cfg.Notifier.Prefetch,
		Logger:   logger,
	})
	n.Start(ctx)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("amqp disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Notifier.MetricsAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Notifier.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	n.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("newsdesk-notifier stopped")
}
