// Package notifier потребляет события article.published и передаёт их
// в настроенные sink'и (лог, webhook).
//
// Notifier stateless: несколько экземпляров читают одну очередь.
// Ошибка sink'а приводит к nack; повторная неудача отправляет
// сообщение в dlq.articles.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Newsdesk/internal/mq"
	"github.com/shaiso/Newsdesk/internal/telemetry"
)

const defaultPrefetch = 10

// Notifier — потребитель очереди articles.published.
type Notifier struct {
	conn     *mq.Connection
	sinks    []Sink
	prefetch int
	logger   *slog.Logger

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Notifier.
type Config struct {
	Conn     *mq.Connection
	Sinks    []Sink // default: LogSink
	Prefetch int    // default: 10
	Logger   *slog.Logger
}

// New создаёт Notifier.
func New(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sinks := cfg.Sinks
	if len(sinks) == 0 {
		sinks = []Sink{LogSink{Logger: logger}}
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Notifier{
		conn:     cfg.Conn,
		sinks:    sinks,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает consumer в отдельной горутине.
func (n *Notifier) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	n.cancelFunc = cancel

	consumer := mq.NewConsumer(n.conn, n.logger, mq.ConsumerConfig{
		Queue:    mq.QueueArticlesPublished,
		Handler:  n.Handle,
		Prefetch: n.prefetch,
	})

	n.logger.Info("starting notifier", "sinks", len(n.sinks), "prefetch", n.prefetch)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			n.logger.Error("notifier consumer stopped", "error", err)
		}
	}()
}

// Stop останавливает consumer и ждёт его выхода.
func (n *Notifier) Stop() {
	if n.cancelFunc != nil {
		n.cancelFunc()
	}
	n.wg.Wait()
	n.logger.Info("notifier stopped")
}

// Handle обрабатывает одно сообщение.
//
// Сообщения чужого типа подтверждаются без доставки.
// Все sink'и вызываются даже если один из них упал.
func (n *Notifier) Handle(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeArticlePublished {
		telemetry.NotificationsTotal.WithLabelValues("ignored").Inc()
		n.logger.Warn("ignoring message", "type", msg.Type, "message_id", msg.ID, "error", ErrUnexpectedMessage)
		return nil
	}

	event, err := mq.DecodePayload[mq.ArticlePublishedPayload](msg)
	if err != nil {
		// битый payload не исправится повтором
		telemetry.NotificationsTotal.WithLabelValues("invalid").Inc()
		n.logger.Error("dropping invalid article.published", "message_id", msg.ID, "error", err)
		return nil
	}

	var errs []error
	for _, sink := range n.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		telemetry.NotificationsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("article %s: %w", event.ArticleID, errors.Join(errs...))
	}

	telemetry.NotificationsTotal.WithLabelValues("delivered").Inc()
	return nil
}
