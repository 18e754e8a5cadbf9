package condition

import (
	"errors"
	"fmt"

	"github.com/Knetic/govaluate"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scope"
)

// Ошибки компиляционной проверки предикатов.
var (
	// ErrEmptyPredicate — ни одна форма предиката не заполнена.
	ErrEmptyPredicate = errors.New("predicate has no form")

	// ErrAmbiguousPredicate — заполнено больше одной формы.
	ErrAmbiguousPredicate = errors.New("predicate has more than one form")

	// ErrBadExpression — выражение не парсится.
	ErrBadExpression = errors.New("invalid condition expression")
)

// Check проверяет структуру предиката и синтаксис выражений.
//
// Вызывается при компиляции плана: после успешного Check
// вычисление предиката в рантайме не может завершиться ошибкой.
func Check(p *domain.Predicate) error {
	if p == nil {
		return nil
	}

	forms := 0
	if p.Branch != "" {
		forms++
	}
	if p.EnvEquals != nil {
		forms++
	}
	if p.EnvExists != "" {
		forms++
	}
	if p.Expression != "" {
		forms++
	}
	if len(p.AllOf) > 0 {
		forms++
	}
	if len(p.AnyOf) > 0 {
		forms++
	}
	if p.Not != nil {
		forms++
	}

	if forms == 0 {
		return ErrEmptyPredicate
	}
	if forms > 1 {
		return ErrAmbiguousPredicate
	}

	if p.Expression != "" {
		if _, err := govaluate.NewEvaluableExpression(p.Expression); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrBadExpression, p.Expression, err)
		}
	}

	for i := range p.AllOf {
		if err := Check(&p.AllOf[i]); err != nil {
			return err
		}
	}
	for i := range p.AnyOf {
		if err := Check(&p.AnyOf[i]); err != nil {
			return err
		}
	}
	if p.Not != nil {
		return Check(p.Not)
	}

	return nil
}

// Evaluate вычисляет предикат против текущего контекста.
//
// Чистое и тотальное: scope не изменяется, ошибок не бывает.
// Неразрешимые переменные дают пустую строку; выражение,
// упавшее при вычислении — false.
func Evaluate(p *domain.Predicate, env *scope.Scope) bool {
	if p == nil {
		return true
	}

	switch {
	case p.Branch != "":
		return env.Get(domain.BranchVar) == p.Branch

	case p.EnvEquals != nil:
		return env.Get(p.EnvEquals.Name) == p.EnvEquals.Value

	case p.EnvExists != "":
		_, ok := env.Lookup(p.EnvExists)
		return ok

	case p.Expression != "":
		return evaluateExpression(p.Expression, env)

	case len(p.AllOf) > 0:
		for i := range p.AllOf {
			if !Evaluate(&p.AllOf[i], env) {
				return false
			}
		}
		return true

	case len(p.AnyOf) > 0:
		for i := range p.AnyOf {
			if Evaluate(&p.AnyOf[i], env) {
				return true
			}
		}
		return false

	case p.Not != nil:
		return !Evaluate(p.Not, env)
	}

	return false
}

// evaluateExpression вычисляет govaluate-выражение.
// Параметры — слепок видимых привязок контекста.
func evaluateExpression(expr string, env *scope.Scope) bool {
	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		// Синтаксис проверен при компиляции; сюда попадают только
		// предикаты, построенные в обход Check.
		return false
	}

	visible := env.Visible()
	params := make(map[string]any, len(visible))
	for name, value := range visible {
		params[name] = value
	}

	result, err := parsed.Evaluate(params)
	if err != nil {
		// Неизвестная переменная или ошибка типов — false, не паника.
		return false
	}

	b, ok := result.(bool)
	return ok && b
}
