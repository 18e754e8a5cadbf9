package scm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalProvider_Fetch(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "pkg", "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := t.TempDir()

	rev, err := (LocalProvider{}).Fetch(context.Background(), Checkout{Repo: src, Dir: dst})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev != src {
		t.Errorf("revision: got %q", rev)
	}

	data, err := os.ReadFile(filepath.Join(dst, "pkg", "main.go"))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(data) != "package main" {
		t.Errorf("content: got %q", data)
	}
}

func TestLocalProvider_Errors(t *testing.T) {
	if _, err := (LocalProvider{}).Fetch(context.Background(), Checkout{}); !errors.Is(err, ErrEmptyRepo) {
		t.Errorf("empty repo: got %v", err)
	}

	co := Checkout{Repo: "/nonexistent/path", Dir: t.TempDir()}
	if _, err := (LocalProvider{}).Fetch(context.Background(), co); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("missing dir: got %v", err)
	}
}

func TestGitProvider_EmptyRepo(t *testing.T) {
	if _, err := (GitProvider{}).Fetch(context.Background(), Checkout{}); !errors.Is(err, ErrEmptyRepo) {
		t.Errorf("expected ErrEmptyRepo, got %v", err)
	}
}
