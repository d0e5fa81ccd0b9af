// Package mq — интеграция с RabbitMQ.
//
// Scheduler публикует событие article.published после каждой
// успешной публикации статьи; newsdesk-notifier его потребляет.
//
//   - connection.go — соединение с reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — конверт сообщения и публикация
//   - consumer.go   — потребление с ack/nack/DLQ
package mq
