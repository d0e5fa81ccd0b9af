package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно сообщение. Ошибка означает nack.
type Handler func(ctx context.Context, msg *Message) error

// Decision — что сделать с доставкой после обработчика.
type Decision int

const (
	Ack Decision = iota
	Requeue
	DeadLetter
)

// Decide выбирает исход доставки. Повторная доставка, которая снова
// упала, уходит в DLQ, чтобы сообщение не крутилось бесконечно.
func Decide(handlerErr error, redelivered bool) Decision {
	switch {
	case handlerErr == nil:
		return Ack
	case redelivered:
		return DeadLetter
	default:
		return Requeue
	}
}

// DecodeMessage разбирает тело доставки.
func DecodeMessage(body []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if msg.ID == "" || msg.Type == "" {
		return nil, errors.New("message without id or type")
	}
	return &msg, nil
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Queue    Queue
	Handler  Handler
	Prefetch int // default: 1
}

// Consumer читает очередь и переживает переподключения.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run блокируется, пока ctx не отменён.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe(ctx)
		if err == nil {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("delivery channel closed, waiting for reconnect")
		} else {
			c.logger.Error("failed to subscribe", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.Reconnected():
		}
	}
}

func (c *Consumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery
	err := c.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
		d, err := ch.ConsumeWithContext(ctx, string(c.queue), "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume: %w", err)
		}
		deliveries = d
		return nil
	})
	return deliveries, err
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	msg, err := DecodeMessage(d.Body)
	if err != nil {
		c.logger.Error("dropping malformed message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)

	herr := c.handler(ctx, msg)
	switch Decide(herr, d.Redelivered) {
	case Ack:
		_ = d.Ack(false)
	case Requeue:
		logger.Warn("handler failed, requeueing", "error", herr)
		_ = d.Nack(false, true)
	case DeadLetter:
		logger.Error("handler failed on redelivery, dead-lettering", "error", herr)
		_ = d.Nack(false, false)
	}
}
