// Package notifier реализует внешнего коллаборатора notify(user, message):
// само сообщение формируют вызывающие компоненты, доставка — очередь
// уведомлений либо лог, если брокер не настроен.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/rabbitmq"
)

// Notification — сообщение пользователю, публикуемое в очередь.
type Notification struct {
	User  string `json:"user"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// QueueNotifier публикует уведомления в RabbitMQ.
type QueueNotifier struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
	log        *slog.Logger
}

// NewQueueNotifier создает нотификатор поверх открытого канала.
func NewQueueNotifier(ch *amqp.Channel, exchange, routingKey string, log *slog.Logger) *QueueNotifier {
	return &QueueNotifier{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		log:        log,
	}
}

// Notify публикует уведомление в очередь.
func (n *QueueNotifier) Notify(_ context.Context, user, title, body string) error {
	const op = "notifier.Notify"

	msg := Notification{User: user, Title: title, Body: body}
	if err := rabbitmq.PublishMessage(n.ch, n.exchange, n.routingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n.log.Info("notification published", slog.String("user", user), slog.String("title", title))
	return nil
}

// LogNotifier пишет уведомления в лог. Используется в тестах и при запуске
// без брокера.
type LogNotifier struct {
	Log *slog.Logger
}

// Notify записывает уведомление в лог.
func (n *LogNotifier) Notify(_ context.Context, user, title, body string) error {
	n.Log.Info("notification",
		slog.String("user", user),
		slog.String("title", title),
		slog.String("body", body))
	return nil
}
