package condition

import (
	"errors"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scope"
)

func testScope() *scope.Scope {
	return scope.New(
		map[string]string{
			"BRANCH_NAME": "main",
			"DEPLOY_ENV":  "staging",
			"EMPTY":       "",
		},
		map[string]string{"RELEASE": "true"},
	)
}

func TestEvaluate_NilPredicateIsTrue(t *testing.T) {
	if !Evaluate(nil, testScope()) {
		t.Error("nil predicate should evaluate to true")
	}
}

func TestEvaluate_Branch(t *testing.T) {
	env := testScope()

	if !Evaluate(&domain.Predicate{Branch: "main"}, env) {
		t.Error("branch main should match")
	}
	if Evaluate(&domain.Predicate{Branch: "develop"}, env) {
		t.Error("branch develop should not match")
	}
}

func TestEvaluate_EnvForms(t *testing.T) {
	env := testScope()

	p := &domain.Predicate{EnvEquals: &domain.EnvEquals{Name: "DEPLOY_ENV", Value: "staging"}}
	if !Evaluate(p, env) {
		t.Error("env_equals should match")
	}

	p = &domain.Predicate{EnvEquals: &domain.EnvEquals{Name: "DEPLOY_ENV", Value: "prod"}}
	if Evaluate(p, env) {
		t.Error("env_equals should not match different value")
	}

	// Неизвестная переменная разрешается в пустую строку, не в ошибку
	p = &domain.Predicate{EnvEquals: &domain.EnvEquals{Name: "MISSING", Value: ""}}
	if !Evaluate(p, env) {
		t.Error("missing variable should compare equal to empty string")
	}

	if !Evaluate(&domain.Predicate{EnvExists: "EMPTY"}, env) {
		t.Error("env_exists should be true for declared empty variable")
	}
	if Evaluate(&domain.Predicate{EnvExists: "MISSING"}, env) {
		t.Error("env_exists should be false for undeclared variable")
	}
}

func TestEvaluate_Expression(t *testing.T) {
	env := testScope()

	cases := []struct {
		expr string
		want bool
	}{
		{`DEPLOY_ENV == "staging"`, true},
		{`DEPLOY_ENV == "prod"`, false},
		{`DEPLOY_ENV == "staging" && RELEASE == "true"`, true},
		{`DEPLOY_ENV == "prod" || RELEASE == "true"`, true},
		// Неизвестная переменная — false, не ошибка (тотальность)
		{`UNKNOWN_VAR == "x"`, false},
		// Небулев результат — false
		{`DEPLOY_ENV`, false},
	}

	for _, tc := range cases {
		got := Evaluate(&domain.Predicate{Expression: tc.expr}, env)
		if got != tc.want {
			t.Errorf("expression %q: got %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluate_Composition(t *testing.T) {
	env := testScope()

	p := &domain.Predicate{AllOf: []domain.Predicate{
		{Branch: "main"},
		{EnvExists: "DEPLOY_ENV"},
	}}
	if !Evaluate(p, env) {
		t.Error("all_of with both true should be true")
	}

	p = &domain.Predicate{AllOf: []domain.Predicate{
		{Branch: "main"},
		{Branch: "develop"},
	}}
	if Evaluate(p, env) {
		t.Error("all_of with one false should be false")
	}

	p = &domain.Predicate{AnyOf: []domain.Predicate{
		{Branch: "develop"},
		{Branch: "main"},
	}}
	if !Evaluate(p, env) {
		t.Error("any_of with one true should be true")
	}

	p = &domain.Predicate{Not: &domain.Predicate{Branch: "develop"}}
	if !Evaluate(p, env) {
		t.Error("not(false) should be true")
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	env := testScope()
	before := env.Visible()

	Evaluate(&domain.Predicate{Expression: `DEPLOY_ENV == "staging"`}, env)
	Evaluate(&domain.Predicate{Branch: "main"}, env)

	after := env.Visible()
	if len(before) != len(after) {
		t.Error("evaluation must not mutate the scope")
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("binding %s changed: %q -> %q", k, v, after[k])
		}
	}
}

func TestCheck(t *testing.T) {
	if err := Check(nil); err != nil {
		t.Errorf("nil predicate should pass: %v", err)
	}

	if err := Check(&domain.Predicate{}); !errors.Is(err, ErrEmptyPredicate) {
		t.Errorf("empty predicate: got %v, want ErrEmptyPredicate", err)
	}

	p := &domain.Predicate{Branch: "main", EnvExists: "X"}
	if err := Check(p); !errors.Is(err, ErrAmbiguousPredicate) {
		t.Errorf("two forms: got %v, want ErrAmbiguousPredicate", err)
	}

	p = &domain.Predicate{Expression: `DEPLOY_ENV == ==`}
	if err := Check(p); !errors.Is(err, ErrBadExpression) {
		t.Errorf("bad expression: got %v, want ErrBadExpression", err)
	}

	// Проверка рекурсивна
	p = &domain.Predicate{AllOf: []domain.Predicate{
		{Branch: "main"},
		{Expression: `a ||`},
	}}
	if err := Check(p); !errors.Is(err, ErrBadExpression) {
		t.Errorf("nested bad expression: got %v, want ErrBadExpression", err)
	}

	p = &domain.Predicate{Not: &domain.Predicate{Expression: `RELEASE == "true"`}}
	if err := Check(p); err != nil {
		t.Errorf("valid nested predicate: %v", err)
	}
}
