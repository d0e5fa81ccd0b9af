package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Newsdesk/internal/domain"
)

// MessageType — тип события.
type MessageType string

const (
	MessageTypeArticlePublished MessageType = "article.published"
)

// Message — конверт события в очереди.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// ArticlePublishedPayload — payload события article.published.
type ArticlePublishedPayload struct {
	ArticleID   uuid.UUID `json:"article_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Trigger     string    `json:"trigger"`
}

// NewMessage собирает конверт с новым ID.
func NewMessage(msgType MessageType, payload any, at time.Time) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: at.UTC(),
	}, nil
}

// ArticlePublishedMessage строит событие для опубликованной статьи.
func ArticlePublishedMessage(a *domain.Article, trigger domain.RunTrigger, at time.Time) (*Message, error) {
	publishedAt := at.UTC()
	if a.PublishedAt != nil {
		publishedAt = a.PublishedAt.UTC()
	}
	return NewMessage(MessageTypeArticlePublished, ArticlePublishedPayload{
		ArticleID:   a.ID,
		Title:       a.Title,
		PublishedAt: publishedAt,
		Trigger:     string(trigger),
	}, at)
}

// DecodePayload разбирает payload в T.
func DecodePayload[T any](msg *Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	return out, nil
}

// Publisher отправляет события в брокер.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish отправляет persistent JSON-сообщение.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, key RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishArticlePublished уведомляет подписчиков о публикации статьи.
// Вызывается только победителем compare-and-set, поэтому на одну
// публикацию приходится одно событие.
func (p *Publisher) PublishArticlePublished(ctx context.Context, a *domain.Article, trigger domain.RunTrigger) error {
	msg, err := ArticlePublishedMessage(a, trigger, time.Now())
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeArticles, RoutingKeyPublished, msg)
}
