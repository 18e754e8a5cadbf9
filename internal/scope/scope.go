package scope

import (
	"maps"
	"strings"
)

// Redacted — строка, подставляемая вместо значения секрета.
const Redacted = "****"

// Scope — стек кадров окружения одного контекста выполнения.
//
// Scope не потокобезопасен: каждая параллельная ветка работает
// со своей копией, полученной через Fork.
type Scope struct {
	// params — параметры запуска. Неизменяемы в течение run.
	params map[string]string

	// frames — стек кадров окружения. frames[0] — глобальный кадр
	// pipeline, последний — кадр текущей стадии.
	frames []map[string]string

	// secrets — значения, подлежащие редактированию в выводе.
	secrets []string
}

// New создаёт Scope с глобальным кадром и параметрами запуска.
func New(globals, params map[string]string) *Scope {
	root := make(map[string]string, len(globals))
	maps.Copy(root, globals)

	p := make(map[string]string, len(params))
	maps.Copy(p, params)

	return &Scope{
		params: p,
		frames: []map[string]string{root},
	}
}

// Push кладёт новый кадр с локальными привязками стадии.
// Привязки затеняют одноимённые внешние до вызова Pop.
func (s *Scope) Push(bindings map[string]string) {
	frame := make(map[string]string, len(bindings))
	maps.Copy(frame, bindings)
	s.frames = append(s.frames, frame)
}

// Pop снимает верхний кадр. Глобальный кадр снять нельзя.
func (s *Scope) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth возвращает текущую глубину стека кадров.
func (s *Scope) Depth() int {
	return len(s.frames)
}

// Set устанавливает привязку в верхнем кадре.
// Привязка исчезнет вместе с кадром при Pop.
func (s *Scope) Set(name, value string) {
	s.frames[len(s.frames)-1][name] = value
}

// Lookup ищет привязку от верхнего кадра к нижнему,
// затем среди параметров запуска.
func (s *Scope) Lookup(name string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}
	if v, ok := s.params[name]; ok {
		return v, true
	}
	return "", false
}

// Get возвращает значение привязки или пустую строку.
// Неразрешимые имена — не ошибка: условия и шаблоны тотальны.
func (s *Scope) Get(name string) string {
	v, _ := s.Lookup(name)
	return v
}

// Param возвращает параметр запуска.
func (s *Scope) Param(name string) (string, bool) {
	v, ok := s.params[name]
	return v, ok
}

// Visible возвращает слепок всех видимых привязок
// (параметры, затем кадры снизу вверх). Только для чтения.
func (s *Scope) Visible() map[string]string {
	merged := make(map[string]string, len(s.params))
	maps.Copy(merged, s.params)
	for _, frame := range s.frames {
		maps.Copy(merged, frame)
	}
	return merged
}

// Fork возвращает глубокую копию scope для параллельной ветки.
// Записи в копии не видны оригиналу и другим веткам.
func (s *Scope) Fork() *Scope {
	frames := make([]map[string]string, len(s.frames))
	for i, frame := range s.frames {
		cp := make(map[string]string, len(frame))
		maps.Copy(cp, frame)
		frames[i] = cp
	}
	secrets := make([]string, len(s.secrets))
	copy(secrets, s.secrets)

	return &Scope{
		params:  s.params, // параметры неизменяемы, копия не нужна
		frames:  frames,
		secrets: secrets,
	}
}

// AddSecret регистрирует значение секрета для редактирования.
// Пустые значения игнорируются.
func (s *Scope) AddSecret(value string) {
	if value == "" {
		return
	}
	s.secrets = append(s.secrets, value)
}

// Redact заменяет все вхождения зарегистрированных секретов.
// Вызывается на границе: перед логированием и захватом вывода.
func (s *Scope) Redact(text string) string {
	for _, secret := range s.secrets {
		text = strings.ReplaceAll(text, secret, Redacted)
	}
	return text
}
