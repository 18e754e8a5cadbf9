package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunResult — результат выполнения одного run.
//
// Это аудиторская запись: статус каждого узла по его пути в дереве,
// захваченный вывод шагов, временные метки. Формат узловой карты
// опаковый для внешнего инструментария (node path → запись).
type RunResult struct {
	// RunID — идентификатор run.
	RunID uuid.UUID `json:"run_id"`

	// Pipeline — имя pipeline.
	Pipeline string `json:"pipeline"`

	// Status — итоговый статус pipeline: худший статус среди
	// выполненных стадий; ABORTED перекрывает всё при отмене.
	Status Status `json:"status"`

	// StartedAt — время начала выполнения.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"finished_at"`

	// Nodes — записи по узлам (путь узла → результат).
	Nodes map[string]*NodeResult `json:"nodes"`
}

// NodeResult — результат выполнения одного узла дерева.
type NodeResult struct {
	// Path — путь узла ("build/unit-tests").
	Path string `json:"path"`

	// Status — терминальный статус узла.
	Status Status `json:"status"`

	// Reason — причина падения (для FAILURE/ABORTED).
	Reason string `json:"reason,omitempty"`

	// Output — захваченный вывод шага (для листьев).
	// Секреты отредактированы на границе исполнителя.
	Output string `json:"output,omitempty"`

	// TimedOut — падение вызвано превышением таймаута.
	TimedOut bool `json:"timed_out,omitempty"`

	// Attempts — количество выполненных попыток (с учётом retry).
	Attempts int `json:"attempts,omitempty"`

	// PostErrors — ошибки post-действий этой области.
	// Не меняют уже зафиксированный терминальный статус.
	PostErrors []string `json:"post_errors,omitempty"`

	// StartedAt — время начала выполнения узла.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения узла.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность выполнения run.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Node возвращает запись узла по пути (nil, если узла нет).
func (r *RunResult) Node(path string) *NodeResult {
	return r.Nodes[path]
}

// FailedNodes возвращает пути узлов со статусом FAILURE.
func (r *RunResult) FailedNodes() []string {
	var paths []string
	for path, node := range r.Nodes {
		if node.Status == StatusFailure {
			paths = append(paths, path)
		}
	}
	return paths
}
