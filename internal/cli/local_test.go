package cli

import "testing"

func TestParseParams(t *testing.T) {
	m, err := parseParams([]string{"env=prod", "tag=v1.2=rc"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if m["env"] != "prod" {
		t.Errorf("env = %q, want prod", m["env"])
	}
	// значение может содержать '='
	if m["tag"] != "v1.2=rc" {
		t.Errorf("tag = %q, want v1.2=rc", m["tag"])
	}
}

func TestParseParamsEmpty(t *testing.T) {
	m, err := parseParams(nil)
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil map, got %v", m)
	}
}

func TestParseParamsInvalid(t *testing.T) {
	if _, err := parseParams([]string{"no-equals"}); err == nil {
		t.Error("expected error for value without '='")
	}
}

func TestPathLess(t *testing.T) {
	if !pathLess("build", "build/test") {
		t.Error("parent must sort before its child")
	}
	if pathLess("build/test", "build") {
		t.Error("child must not sort before its parent")
	}
	if pathLess("deploy", "build") {
		t.Error("siblings sort lexicographically")
	}
}
