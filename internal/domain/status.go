package domain

// Status — статус узла (стадии, шага) или pipeline в целом.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCESS
//	                  ↘ UNSTABLE
//	                  ↘ FAILURE
//	          (или) → ABORTED (при отмене)
//	          (или) → SKIPPED (условие ложно / сиблинг упал)
//
// Терминальный статус узла неизменяем после установки.
type Status string

const (
	// StatusPending — узел ещё не начал выполняться.
	StatusPending Status = "PENDING"

	// StatusRunning — узел в процессе выполнения.
	StatusRunning Status = "RUNNING"

	// StatusSuccess — узел завершён успешно.
	StatusSuccess Status = "SUCCESS"

	// StatusUnstable — узел завершён с деградацией
	// (например, упавшее post-действие с эскалацией).
	StatusUnstable Status = "UNSTABLE"

	// StatusFailure — узел завершён с ошибкой.
	StatusFailure Status = "FAILURE"

	// StatusAborted — выполнение отменено.
	StatusAborted Status = "ABORTED"

	// StatusSkipped — узел пропущен. Терминальное под-состояние:
	// не считается ни успехом, ни падением при агрегации.
	StatusSkipped Status = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusUnstable, StatusFailure, StatusAborted, StatusSkipped:
		return true
	default:
		return false
	}
}

// severity — порядок "испорченности" статусов для агрегации.
// success < unstable < failure; aborted перекрывает всё.
func (s Status) severity() int {
	switch s {
	case StatusSuccess:
		return 1
	case StatusUnstable:
		return 2
	case StatusFailure:
		return 3
	case StatusAborted:
		return 4
	default:
		// PENDING/RUNNING/SKIPPED не участвуют в агрегации.
		return 0
	}
}

// Worse возвращает худший из двух статусов.
//
// SKIPPED и нетерминальные статусы нейтральны: Worse(SUCCESS, SKIPPED)
// даёт SUCCESS. Если оба нейтральны, возвращается первый аргумент.
func Worse(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// Trigger возвращает триггер post-действий для статуса.
func (s Status) Trigger() PostTrigger {
	switch s {
	case StatusSuccess:
		return TriggerSuccess
	case StatusUnstable:
		return TriggerUnstable
	case StatusFailure:
		return TriggerFailure
	case StatusAborted:
		return TriggerAborted
	default:
		return ""
	}
}
