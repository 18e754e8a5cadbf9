package mq

import (
	"context"

	"github.com/shaiso/Conveyor/internal/notify"
)

// Sink — notify.Sink поверх очереди уведомлений.
//
// Уведомление уходит в exchange conveyor.notifications; доставку до
// конечных каналов (почта, чат) выполняют внешние консьюмеры.
type Sink struct {
	pub *Publisher
}

// NewSink создаёт приёмник уведомлений поверх publisher.
func NewSink(pub *Publisher) *Sink {
	return &Sink{pub: pub}
}

// Send реализует notify.Sink.
func (s *Sink) Send(ctx context.Context, msg notify.Message) error {
	m := newMessage(MessageTypeNotification, msg)
	return s.pub.Publish(ctx, ExchangeNotifications, RoutingKeyNotification, m)
}
