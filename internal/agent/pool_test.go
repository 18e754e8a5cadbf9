package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalPool_AcquireRelease(t *testing.T) {
	p := NewLocalPool(Config{Labels: map[string]int{"linux": 2}})

	ctx := context.Background()

	a, err := p.Acquire(ctx, "linux")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Label() != "linux" {
		t.Errorf("label: got %q", a.Label())
	}

	b, err := p.Acquire(ctx, "linux")
	if err != nil {
		t.Fatalf("second slot should be free: %v", err)
	}

	// Третий захват должен ждать до освобождения
	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(waitCtx, "linux"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("exhausted pool should block, got %v", err)
	}

	a.Release()
	c, err := p.Acquire(ctx, "linux")
	if err != nil {
		t.Fatalf("slot freed by release should be acquirable: %v", err)
	}

	b.Release()
	c.Release()
}

func TestLocalPool_ReleaseIdempotent(t *testing.T) {
	p := NewLocalPool(Config{Labels: map[string]int{"linux": 1}})

	a, err := p.Acquire(context.Background(), "linux")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.Release()
	a.Release() // не должен освобождать чужой слот

	b, err := p.Acquire(context.Background(), "linux")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Release()

	waitCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(waitCtx, "linux"); !errors.Is(err, context.DeadlineExceeded) {
		t.Error("double release must not create an extra slot")
	}
}

func TestLocalPool_UnknownLabel(t *testing.T) {
	p := NewLocalPool(Config{Labels: map[string]int{"linux": 1}})

	if _, err := p.Acquire(context.Background(), "windows"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestLocalPool_Closed(t *testing.T) {
	p := NewLocalPool(Config{Labels: map[string]int{"linux": 1}})
	p.Close()

	if _, err := p.Acquire(context.Background(), "linux"); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestLocalPool_DefaultCapacity(t *testing.T) {
	p := NewLocalPool(Config{Labels: map[string]int{"linux": 0}})

	if got := p.Labels()["linux"]; got != 1 {
		t.Errorf("zero capacity should default to 1, got %d", got)
	}
}
