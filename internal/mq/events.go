package mq

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// EngineEvents публикует события жизненного цикла запуска в брокер.
//
// Реализует engine.EventSink. Движок зовёт приёмник синхронно,
// поэтому ошибки публикации только логируются: недоступный брокер
// не должен ронять выполняющийся pipeline.
type EngineEvents struct {
	pub    *Publisher
	logger *slog.Logger
}

// NewEngineEvents создаёт приёмник поверх publisher.
func NewEngineEvents(pub *Publisher, logger *slog.Logger) *EngineEvents {
	return &EngineEvents{pub: pub, logger: logger}
}

// RunStarted публикует событие о старте запуска.
func (e *EngineEvents) RunStarted(ctx context.Context, runID, pipeline string) {
	if err := e.pub.PublishRunStarted(ctx, runID, pipeline); err != nil {
		e.logger.Warn("publish run.started failed", "run_id", runID, "error", err)
	}
}

// StageFinished публикует терминальный статус стадии.
func (e *EngineEvents) StageFinished(ctx context.Context, runID, path string, status domain.Status, d time.Duration) {
	err := e.pub.PublishStageFinished(ctx, StageFinishedPayload{
		RunID:      runID,
		StagePath:  path,
		Status:     status,
		DurationMS: d.Milliseconds(),
	})
	if err != nil {
		e.logger.Warn("publish stage.finished failed", "run_id", runID, "stage", path, "error", err)
	}
}

// RunFinished публикует событие о завершении запуска.
func (e *EngineEvents) RunFinished(ctx context.Context, runID, pipeline string, status domain.Status) {
	err := e.pub.PublishRunFinished(ctx, RunFinishedPayload{
		RunID:    runID,
		Pipeline: pipeline,
		Status:   status,
	})
	if err != nil {
		e.logger.Warn("publish run.finished failed", "run_id", runID, "error", err)
	}
}
