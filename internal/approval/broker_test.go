package approval

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBroker_ApproveUnblocksWaiter(t *testing.T) {
	b := NewBroker()

	type result struct {
		d   Decision
		err error
	}
	got := make(chan result, 1)

	go func() {
		d, err := b.Wait(context.Background(), Request{ID: "req-1", RunID: "run-1", StagePath: "deploy"})
		got <- result{d, err}
	}()

	// Дождаться регистрации ожидания
	deadline := time.Now().Add(time.Second)
	for len(b.Pending()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never registered")
		}
		time.Sleep(time.Millisecond)
	}

	if err := b.Resolve("req-1", Decision{Approved: true, By: "lead"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	r := <-got
	if r.err != nil {
		t.Fatalf("wait: %v", r.err)
	}
	if !r.d.Approved || r.d.By != "lead" {
		t.Errorf("decision: %+v", r.d)
	}
	if len(b.Pending()) != 0 {
		t.Error("resolved request must leave the pending set")
	}
}

func TestBroker_Reject(t *testing.T) {
	b := NewBroker()

	errc := make(chan error, 1)
	go func() {
		_, err := b.Wait(context.Background(), Request{ID: "req-2"})
		errc <- err
	}()

	deadline := time.Now().Add(time.Second)
	for len(b.Pending()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never registered")
		}
		time.Sleep(time.Millisecond)
	}

	if err := b.Resolve("req-2", Decision{Approved: false, By: "lead"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if err := <-errc; !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
}

func TestBroker_ContextCancelRemovesRequest(t *testing.T) {
	b := NewBroker()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := b.Wait(ctx, Request{ID: "req-3"})
		errc <- err
	}()

	deadline := time.Now().Add(time.Second)
	for len(b.Pending()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never registered")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := b.Resolve("req-3", Decision{Approved: true}); !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("cancelled request must be gone, got %v", err)
	}
}

func TestBroker_ResolveUnknown(t *testing.T) {
	b := NewBroker()

	if err := b.Resolve("ghost", Decision{Approved: true}); !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("expected ErrUnknownRequest, got %v", err)
	}
}
