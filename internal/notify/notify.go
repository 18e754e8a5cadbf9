package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Уровни уведомлений.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message — одно уведомление.
type Message struct {
	// RunID — запуск, к которому относится уведомление.
	RunID string `json:"run_id"`

	// Pipeline — имя pipeline.
	Pipeline string `json:"pipeline"`

	// StagePath — путь стадии-отправителя. Пустой для уведомлений
	// уровня pipeline.
	StagePath string `json:"stage_path,omitempty"`

	// Level — info, warning или error.
	Level string `json:"level"`

	// Text — текст уведомления. Секреты замаскированы отправителем.
	Text string `json:"text"`

	// SentAt — момент отправки.
	SentAt time.Time `json:"sent_at"`
}

// Sink — приёмник уведомлений.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SlogSink пишет уведомления в структурированный лог.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink создаёт приёмник поверх логгера.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Send реализует Sink.
func (s *SlogSink) Send(_ context.Context, msg Message) error {
	level := slog.LevelInfo
	switch msg.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}

	s.logger.Log(context.Background(), level, msg.Text,
		"run_id", msg.RunID,
		"pipeline", msg.Pipeline,
		"stage", msg.StagePath,
	)
	return nil
}

// Multi доставляет уведомление во все приёмники.
//
// Ошибки отдельных приёмников собираются через errors.Join,
// остальные приёмники при этом не пропускаются.
type Multi []Sink

// Send реализует Sink.
func (m Multi) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
