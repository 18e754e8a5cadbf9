package scope

import (
	"maps"
	"testing"
)

func TestScope_LookupOrder(t *testing.T) {
	s := New(map[string]string{"A": "global", "B": "global"}, map[string]string{"P": "param", "A": "param"})

	// Кадр стадии затеняет глобальный
	s.Push(map[string]string{"A": "stage"})

	if got := s.Get("A"); got != "stage" {
		t.Errorf("expected stage binding to shadow, got %q", got)
	}
	if got := s.Get("B"); got != "global" {
		t.Errorf("expected global binding, got %q", got)
	}
	if got := s.Get("P"); got != "param" {
		t.Errorf("expected param binding, got %q", got)
	}

	// Глобальный кадр затеняет одноимённый параметр
	s.Pop()
	if got := s.Get("A"); got != "global" {
		t.Errorf("expected global to shadow param, got %q", got)
	}
}

func TestScope_ShadowPop(t *testing.T) {
	s := New(map[string]string{"X": "outer"}, nil)

	before := s.Visible()

	s.Push(map[string]string{"X": "inner", "Y": "local"})
	s.Set("Z", "mutated")

	if got := s.Get("X"); got != "inner" {
		t.Errorf("expected inner, got %q", got)
	}
	if got := s.Get("Z"); got != "mutated" {
		t.Errorf("expected mutated, got %q", got)
	}

	s.Pop()

	// Привязки стадии не видны после выхода из неё
	after := s.Visible()
	if !maps.Equal(before, after) {
		t.Errorf("visible bindings changed after pop: before=%v after=%v", before, after)
	}
	if _, ok := s.Lookup("Y"); ok {
		t.Error("stage-local binding Y should not survive pop")
	}
	if _, ok := s.Lookup("Z"); ok {
		t.Error("binding Z set inside the frame should not survive pop")
	}
}

func TestScope_PopNeverDropsGlobalFrame(t *testing.T) {
	s := New(map[string]string{"A": "1"}, nil)
	s.Pop()
	s.Pop()

	if s.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", s.Depth())
	}
	if got := s.Get("A"); got != "1" {
		t.Errorf("global frame lost: got %q", got)
	}
}

func TestScope_ForkIsolation(t *testing.T) {
	s := New(map[string]string{"SHARED": "base"}, nil)
	s.Push(map[string]string{"STAGE": "v"})

	left := s.Fork()
	right := s.Fork()

	left.Set("SHARED", "left")
	right.Set("BRANCH_ONLY", "right")

	// Записи ветки не видны оригиналу и другой ветке
	if got := s.Get("SHARED"); got != "base" {
		t.Errorf("parent scope mutated by fork: %q", got)
	}
	if got := right.Get("SHARED"); got != "base" {
		t.Errorf("sibling fork observed mutation: %q", got)
	}
	if _, ok := s.Lookup("BRANCH_ONLY"); ok {
		t.Error("parent scope observed fork-local binding")
	}
	if _, ok := left.Lookup("BRANCH_ONLY"); ok {
		t.Error("sibling fork observed fork-local binding")
	}
}

func TestScope_Redact(t *testing.T) {
	s := New(nil, nil)
	s.AddSecret("s3cr3t-token")
	s.AddSecret("") // пустые значения игнорируются

	got := s.Redact("deploy with s3cr3t-token and again s3cr3t-token")
	want := "deploy with **** and again ****"
	if got != want {
		t.Errorf("redact: got %q, want %q", got, want)
	}

	// Fork несёт секреты с собой
	forked := s.Fork()
	if forked.Redact("x s3cr3t-token y") != "x **** y" {
		t.Error("forked scope lost secrets")
	}
}

func TestScope_GetUnknownIsEmpty(t *testing.T) {
	s := New(nil, nil)
	if got := s.Get("NO_SUCH_VAR"); got != "" {
		t.Errorf("unknown variable should resolve to empty, got %q", got)
	}
}
