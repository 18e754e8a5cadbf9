package mq

import (
	"context"

	"github.com/shaiso/Conveyor/internal/notify"
)

// NotifySink публикует уведомления в обменник notifications.
// Реализует notify.Sink; потребители очереди notifications.outbox
// доставляют их во внешние каналы.
type NotifySink struct {
	pub *Publisher
}

// NewNotifySink создаёт приёмник поверх Publisher.
func NewNotifySink(pub *Publisher) *NotifySink {
	return &NotifySink{pub: pub}
}

// Send реализует notify.Sink.
func (s *NotifySink) Send(ctx context.Context, msg notify.Message) error {
	return s.pub.Publish(ctx, ExchangeNotifications, RoutingKeyNotification,
		newMessage(MessageTypeNotification, msg))
}
