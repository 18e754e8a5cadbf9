package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — запись о запуске pipeline.
//
// Run создаётся когда:
//   - Пользователь запускает pipeline через API/CLI
//   - Scheduler создаёт run по расписанию
//
// Каждый run выполняет конкретную версию pipeline с зафиксированными
// при запуске параметрами.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// PipelineID — ссылка на pipeline.
	PipelineID uuid.UUID `json:"pipeline_id"`

	// Version — версия pipeline, которая выполняется.
	Version int `json:"version"`

	// Status — текущий статус выполнения.
	Status Status `json:"status"`

	// Parameters — параметры, переданные при запуске.
	// Неизменяемы в течение run.
	Parameters map[string]string `json:"parameters,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился FAILURE.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности для защиты от дубликатов.
	// Для scheduled runs: "{schedule_id}_{next_due_at_unix}".
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = StatusRunning
	r.StartedAt = &now
}

// MarkFinished фиксирует терминальный статус run.
func (r *Run) MarkFinished(status Status, errMsg string) {
	now := time.Now()
	r.Status = status
	r.FinishedAt = &now
	r.Error = errMsg
}

// Pipeline — зарегистрированный pipeline.
//
// Один pipeline имеет множество версий (PipelineVersion);
// каждый run выполняет конкретную версию.
type Pipeline struct {
	// ID — уникальный идентификатор pipeline.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя ("deploy-backend", "nightly-build").
	Name string `json:"name"`

	// IsActive — неактивные pipelines не запускаются по расписанию.
	IsActive bool `json:"is_active"`

	// CreatedAt — время регистрации.
	CreatedAt time.Time `json:"created_at"`
}

// PipelineVersion — версия pipeline с конкретным определением.
//
// Версионирование позволяет отслеживать историю изменений
// и запускать старые версии для сравнения.
type PipelineVersion struct {
	// PipelineID — ссылка на родительский pipeline.
	PipelineID uuid.UUID `json:"pipeline_id"`

	// Version — номер версии (1, 2, 3, ...). Автоинкремент.
	Version int `json:"version"`

	// Definition — определение pipeline.
	Definition PipelineDefinition `json:"definition"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}
