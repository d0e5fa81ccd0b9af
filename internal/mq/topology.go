package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeArticles Exchange = "newsdesk.articles"
	ExchangeDLQ      Exchange = "newsdesk.dlq"
)

const (
	QueueArticlesPublished Queue = "articles.published"
	QueueDLQArticles       Queue = "dlq.articles"
)

const (
	RoutingKeyPublished   RoutingKey = "published"
	RoutingKeyDLQArticles RoutingKey = "articles"
)

// ExchangeSpec описывает обменник.
type ExchangeSpec struct {
	Name Exchange
	Kind string
}

// QueueSpec описывает очередь и, опционально, её dead-letter маршрут.
type QueueSpec struct {
	Name          Queue
	DeadLetterTo  Exchange
	DeadLetterKey RoutingKey
}

// Args возвращает аргументы x-dead-letter-* для QueueDeclare.
func (q QueueSpec) Args() amqp.Table {
	if q.DeadLetterTo == "" {
		return nil
	}
	return amqp.Table{
		"x-dead-letter-exchange":    string(q.DeadLetterTo),
		"x-dead-letter-routing-key": string(q.DeadLetterKey),
	}
}

// Binding привязывает очередь к обменнику.
type Binding struct {
	Queue      Queue
	Exchange   Exchange
	RoutingKey RoutingKey
}

// Topology — полный набор объектов брокера.
type Topology struct {
	Exchanges []ExchangeSpec
	Queues    []QueueSpec
	Bindings  []Binding
}

// DefaultTopology:
//
//	newsdesk.articles (direct)
//	└── articles.published [routing: published] → DLQ dlq.articles
//	newsdesk.dlq (direct)
//	└── dlq.articles [routing: articles]
func DefaultTopology() Topology {
	return Topology{
		Exchanges: []ExchangeSpec{
			{Name: ExchangeArticles, Kind: amqp.ExchangeDirect},
			{Name: ExchangeDLQ, Kind: amqp.ExchangeDirect},
		},
		Queues: []QueueSpec{
			{Name: QueueArticlesPublished, DeadLetterTo: ExchangeDLQ, DeadLetterKey: RoutingKeyDLQArticles},
			{Name: QueueDLQArticles},
		},
		Bindings: []Binding{
			{Queue: QueueArticlesPublished, Exchange: ExchangeArticles, RoutingKey: RoutingKeyPublished},
			{Queue: QueueDLQArticles, Exchange: ExchangeDLQ, RoutingKey: RoutingKeyDLQArticles},
		},
	}
}

// Validate проверяет, что привязки и DLQ ссылаются на объявленные объекты.
func (t Topology) Validate() error {
	exchanges := make(map[Exchange]bool, len(t.Exchanges))
	for _, ex := range t.Exchanges {
		exchanges[ex.Name] = true
	}
	queues := make(map[Queue]bool, len(t.Queues))
	for _, q := range t.Queues {
		queues[q.Name] = true
		if q.DeadLetterTo != "" && !exchanges[q.DeadLetterTo] {
			return fmt.Errorf("queue %s: unknown dead-letter exchange %s", q.Name, q.DeadLetterTo)
		}
	}
	for _, b := range t.Bindings {
		if !queues[b.Queue] {
			return fmt.Errorf("binding: unknown queue %s", b.Queue)
		}
		if !exchanges[b.Exchange] {
			return fmt.Errorf("binding: unknown exchange %s", b.Exchange)
		}
	}
	return nil
}

// Declare объявляет топологию. Операции идемпотентны.
func (t Topology) Declare(ctx context.Context, conn *Connection) error {
	if err := t.Validate(); err != nil {
		return err
	}

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range t.Exchanges {
			// durable, не auto-delete, не internal
			if err := ch.ExchangeDeclare(string(ex.Name), ex.Kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
			}
		}

		for _, q := range t.Queues {
			if _, err := ch.QueueDeclare(string(q.Name), true, false, false, false, q.Args()); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.Name, err)
			}
		}

		for _, b := range t.Bindings {
			if err := ch.QueueBind(string(b.Queue), string(b.RoutingKey), string(b.Exchange), false, nil); err != nil {
				return fmt.Errorf("bind %s to %s: %w", b.Queue, b.Exchange, err)
			}
		}
		return nil
	})
}
