package steps

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scope"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — вид шага не найден в реестре.
	ErrStepNotFound = errors.New("step kind not found")

	// ErrInvalidConfig — невалидная конфигурация шага.
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrCommandFailed — команда шага завершилась неуспешно.
	ErrCommandFailed = errors.New("step command failed")
)

// Step — интерфейс исполнителя вида шага.
type Step interface {
	// Kind возвращает вид шага.
	Kind() string

	// Execute выполняет шаг и возвращает результат.
	// Шаг должен проверять ctx.Done() для отмены и таймаутов.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения шага.
type Request struct {
	// Step — определение шага из плана.
	Step *domain.StepDef

	// Path — путь узла в плане (build/compile).
	Path string

	// RunID — идентификатор запуска.
	RunID string

	// Pipeline — имя pipeline.
	Pipeline string

	// WorkDir — рабочий каталог запуска.
	WorkDir string

	// Env — область переменных стадии. Шагу видны глобальные,
	// параметры и переопределения всех объемлющих стадий.
	Env *scope.Scope

	// Agent — метка агента, на котором выполняется шаг.
	Agent string

	// Logger — логгер с полями запуска.
	Logger *slog.Logger
}

// Log возвращает логгер запроса, никогда не nil.
func (r *Request) Log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Response — результат выполнения шага.
type Response struct {
	// Outputs — структурированные выходные данные шага.
	Outputs map[string]any

	// Output — захваченный текстовый вывод, секреты замаскированы.
	Output string
}

// NewResponse создаёт Response с outputs.
func NewResponse(outputs map[string]any) *Response {
	if outputs == nil {
		outputs = make(map[string]any)
	}
	return &Response{Outputs: outputs}
}

// ConfigString извлекает строковое значение из конфигурации шага.
func ConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ConfigBool извлекает булево значение из конфигурации шага.
func ConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
