package secret

import (
	"context"
	"errors"
	"testing"
)

func TestIsRef(t *testing.T) {
	if !IsRef("secret://deploy-token") {
		t.Error("secret:// prefix should be recognized")
	}
	if IsRef("plain-value") {
		t.Error("plain value is not a ref")
	}
	if got := RefID("secret://deploy-token"); got != "deploy-token" {
		t.Errorf("RefID: got %q", got)
	}
}

func TestEnvResolver(t *testing.T) {
	t.Setenv("CONVEYOR_SECRET_DEPLOY_TOKEN", "s3cr3t")

	r := &EnvResolver{Prefix: "CONVEYOR_SECRET_"}

	got, err := r.Resolve(context.Background(), "deploy-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cr3t" {
		t.Errorf("value: got %q", got)
	}

	if _, err := r.Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string]string{"api-key": "abc"})

	got, err := r.Resolve(context.Background(), "api-key")
	if err != nil || got != "abc" {
		t.Fatalf("got %q, %v", got, err)
	}

	r.Set("api-key", "def")
	got, _ = r.Resolve(context.Background(), "api-key")
	if got != "def" {
		t.Errorf("Set should replace value, got %q", got)
	}

	if _, err := r.Resolve(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
