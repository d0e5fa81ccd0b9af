package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Newsdesk/internal/mq"
)

const defaultWebhookTimeout = 10 * time.Second

// Sink доставляет уведомление о публикации дальше.
type Sink interface {
	Deliver(ctx context.Context, event mq.ArticlePublishedPayload) error
}

// LogSink только пишет событие в лог.
type LogSink struct {
	Logger *slog.Logger
}

// Deliver логирует событие.
func (s LogSink) Deliver(_ context.Context, event mq.ArticlePublishedPayload) error {
	s.Logger.Info("article published",
		"article_id", event.ArticleID,
		"title", event.Title,
		"published_at", event.PublishedAt,
		"trigger", event.Trigger,
	)
	return nil
}

// WebhookSink отправляет событие POST-запросом с JSON-телом.
//
// Ответ >= 400 считается ошибкой доставки: сообщение уйдёт
// на повтор, а при повторной неудаче в DLQ.
type WebhookSink struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewWebhookSink создаёт WebhookSink.
func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookSink{url: url, client: &http.Client{}, timeout: timeout}
}

// Deliver выполняет POST.
func (s *WebhookSink) Deliver(ctx context.Context, event mq.ArticlePublishedPayload) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal body: %v", ErrDeliveryFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Newsdesk-Event", string(mq.MessageTypeArticlePublished))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrDeliveryFailed, resp.StatusCode, truncate(string(respBody), 200))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
