package engine

import (
	"context"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// EventSink — приёмник событий жизненного цикла запуска.
//
// Движок зовёт приёмник синхронно из горутин стадий; реализация
// обязана быть быстрой и потокобезопасной. Ошибки доставки — забота
// реализации, движок их не видит.
type EventSink interface {
	RunStarted(ctx context.Context, runID, pipeline string)
	StageFinished(ctx context.Context, runID, path string, status domain.Status, d time.Duration)
	RunFinished(ctx context.Context, runID, pipeline string, status domain.Status)
}

// nopEvents — приёмник по умолчанию.
type nopEvents struct{}

func (nopEvents) RunStarted(context.Context, string, string) {}

func (nopEvents) StageFinished(context.Context, string, string, domain.Status, time.Duration) {}

func (nopEvents) RunFinished(context.Context, string, string, domain.Status) {}
