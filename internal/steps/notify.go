package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/notify"
)

// NotifyStep отправляет уведомление во внешние приёмники.
//
// Конфигурация:
//
//	{"message": "deploy finished", "level": "info"}
//
// Сообщение проходит маскирование секретов перед отправкой.
// Недоставка — обычный неуспех шага; чаще всего notify используется
// в post-действиях, где его ошибка не меняет статус стадии.
type NotifyStep struct {
	sink notify.Sink
}

// NewNotifyStep создаёт исполнителя с приёмником sink.
func NewNotifyStep(sink notify.Sink) *NotifyStep {
	return &NotifyStep{sink: sink}
}

// Kind реализует Step.
func (s *NotifyStep) Kind() string { return domain.KindNotify }

// Execute реализует Step.
func (s *NotifyStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	text := ConfigString(req.Step.Config, "message")
	if text == "" {
		return nil, fmt.Errorf("%w: notify step requires message", ErrInvalidConfig)
	}
	if req.Env != nil {
		text = req.Env.Redact(text)
	}

	level := ConfigString(req.Step.Config, "level")
	if level == "" {
		level = notify.LevelInfo
	}

	msg := notify.Message{
		RunID:     req.RunID,
		Pipeline:  req.Pipeline,
		StagePath: req.Path,
		Level:     level,
		Text:      text,
		SentAt:    time.Now().UTC(),
	}

	if err := s.sink.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send notification: %w", err)
	}

	return NewResponse(map[string]any{"level": level}), nil
}
