package domain

// PipelineDefinition — определение pipeline.
//
// Это "рецепт" сборки: дерево стадий с условиями, агентами,
// переменными окружения и post-действиями. Определение неизменяемо —
// один definition компилируется в план и выполняется многократно.
type PipelineDefinition struct {
	// Name — имя pipeline (например, "deploy-backend").
	Name string `json:"name" yaml:"name"`

	// Agent — метка агента по умолчанию для всех стадий.
	// Стадии могут переопределять агента локально.
	Agent string `json:"agent,omitempty" yaml:"agent,omitempty"`

	// Env — глобальные переменные окружения pipeline.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Parameters — объявленные параметры запуска.
	Parameters []ParameterDef `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Options — настройки по умолчанию (таймаут, retry).
	// Стадии могут переопределять их локально.
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`

	// Stages — упорядоченный список стадий верхнего уровня.
	Stages []StageDef `json:"stages" yaml:"stages"`

	// Post — post-действия уровня pipeline.
	// Выполняются после завершения всех стадий.
	Post []PostActionDef `json:"post,omitempty" yaml:"post,omitempty"`
}

// ParameterDef — объявление параметра запуска.
type ParameterDef struct {
	// Name — имя параметра.
	Name string `json:"name" yaml:"name"`

	// Type — тип: "string", "boolean", "choice".
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Default — значение по умолчанию.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	// Choices — допустимые значения (для type="choice").
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`

	// Description — описание назначения параметра.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Options — настройки выполнения стадии или pipeline.
type Options struct {
	// TimeoutSec — таймаут выполнения в секундах (wall-clock).
	// 0 — таймаут не задан (наследуется или отсутствует).
	TimeoutSec int `json:"timeout_sec,omitempty" yaml:"timeout_sec,omitempty"`

	// Retry — количество повторных попыток для упавших шагов.
	// 0 — без повторов. Действует ближайшая объявленная стадия.
	Retry int `json:"retry,omitempty" yaml:"retry,omitempty"`

	// ContinueOnFailure — продолжать выполнение последующих
	// последовательных стадий после падения одной из них.
	ContinueOnFailure bool `json:"continue_on_failure,omitempty" yaml:"continue_on_failure,omitempty"`
}

// ExecMode — режим выполнения дочерних узлов стадии.
type ExecMode string

const (
	// ModeSequential — дети выполняются строго по порядку объявления.
	ModeSequential ExecMode = "sequential"

	// ModeParallel — дети выполняются конкурентно, порядок не определён.
	ModeParallel ExecMode = "parallel"
)

// StageDef — определение стадии.
//
// Стадия содержит либо вложенные стадии (Stages), либо листовые
// шаги (Steps), либо имя генератора (Generator), который породит
// дочерние стадии на этапе компиляции плана.
type StageDef struct {
	// Name — имя стадии. Уникально среди сиблингов,
	// но не обязано быть уникальным глобально.
	Name string `json:"name" yaml:"name"`

	// Agent — переопределение агента для этой стадии.
	Agent string `json:"agent,omitempty" yaml:"agent,omitempty"`

	// Env — локальные переменные стадии. Затеняют внешние привязки
	// и снимаются при выходе из стадии (даже при падении).
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// When — условие выполнения. Nil — стадия выполняется всегда.
	// Ложное условие помечает стадию SKIPPED без захода в детей.
	When *Predicate `json:"when,omitempty" yaml:"when,omitempty"`

	// Mode — режим выполнения детей. По умолчанию sequential.
	Mode ExecMode `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Stages — вложенные стадии.
	Stages []StageDef `json:"stages,omitempty" yaml:"stages,omitempty"`

	// Steps — листовые шаги стадии.
	Steps []StepDef `json:"steps,omitempty" yaml:"steps,omitempty"`

	// Generator — имя зарегистрированного генератора стадий.
	// Генератор вызывается один раз при компиляции плана;
	// результат замораживается вместе с планом.
	Generator string `json:"generator,omitempty" yaml:"generator,omitempty"`

	// Post — post-действия уровня стадии.
	Post []PostActionDef `json:"post,omitempty" yaml:"post,omitempty"`

	// Options — локальные настройки (таймаут, retry).
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Встроенные виды шагов.
const (
	// KindShell — выполнение shell-команды.
	KindShell = "shell"

	// KindNotify — отправка уведомления (best-effort).
	KindNotify = "notify"

	// KindArchive — архивация артефактов по маске.
	KindArchive = "archive"

	// KindApproval — ожидание внешнего решения (approval gate).
	KindApproval = "approval"

	// KindCheckout — получение рабочей копии из source control.
	KindCheckout = "checkout"
)

// BuiltinKinds возвращает список встроенных видов шагов.
func BuiltinKinds() []string {
	return []string{KindShell, KindNotify, KindArchive, KindApproval, KindCheckout}
}

// StepDef — листовой шаг.
type StepDef struct {
	// Name — имя шага (для логов и аудита).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Kind — вид действия: shell, notify, archive, approval, checkout
	// или имя зарегистрированного пользовательского действия.
	// Неизвестный вид отклоняется при компиляции, не в рантайме.
	Kind string `json:"kind" yaml:"kind"`

	// Config — конфигурация действия (зависит от вида).
	// Для shell: command. Для notify: target, message.
	// Для archive: pattern. Для approval: id, message.
	// Для checkout: repo.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// PostTrigger — условие срабатывания post-действия.
type PostTrigger string

const (
	TriggerAlways   PostTrigger = "always"
	TriggerSuccess  PostTrigger = "success"
	TriggerFailure  PostTrigger = "failure"
	TriggerUnstable PostTrigger = "unstable"
	TriggerAborted  PostTrigger = "aborted"
)

// ValidTrigger проверяет, что триггер известен.
func ValidTrigger(t PostTrigger) bool {
	switch t {
	case TriggerAlways, TriggerSuccess, TriggerFailure, TriggerUnstable, TriggerAborted:
		return true
	default:
		return false
	}
}

// PostActionDef — привязка действия к финальному статусу области.
type PostActionDef struct {
	// Trigger — при каком статусе выполнять действие.
	Trigger PostTrigger `json:"trigger" yaml:"trigger"`

	// Step — выполняемое действие.
	Step StepDef `json:"step" yaml:"step"`

	// Escalate — поднимать статус pipeline до UNSTABLE
	// при падении этого post-действия. Терминальный статус
	// собственной области при этом не меняется.
	Escalate bool `json:"escalate,omitempty" yaml:"escalate,omitempty"`
}

// IsLeafStage возвращает true, если стадия содержит шаги, а не стадии.
func (s *StageDef) IsLeafStage() bool {
	return len(s.Steps) > 0 && len(s.Stages) == 0
}

// EffectiveMode возвращает режим выполнения с учётом значения по умолчанию.
func (s *StageDef) EffectiveMode() ExecMode {
	if s.Mode == "" {
		return ModeSequential
	}
	return s.Mode
}
