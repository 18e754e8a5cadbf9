package steps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/notify"
	"github.com/shaiso/Conveyor/internal/scm"
	"github.com/shaiso/Conveyor/internal/scope"
)

// fakeSink запоминает отправленные уведомления.
type fakeSink struct {
	messages []notify.Message
}

func (f *fakeSink) Send(_ context.Context, msg notify.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

func shellRequest(t *testing.T, config map[string]any, env *scope.Scope) *Request {
	t.Helper()
	return &Request{
		Step:     &domain.StepDef{Name: "cmd", Kind: domain.KindShell, Config: config},
		Path:     "build/cmd",
		RunID:    "run-1",
		Pipeline: "demo",
		WorkDir:  t.TempDir(),
		Env:      env,
	}
}

func TestShellStep_Success(t *testing.T) {
	env := scope.New(map[string]string{"GREETING": "hello"}, nil)
	req := shellRequest(t, map[string]any{"command": "echo $GREETING"}, env)

	resp, err := NewShellStep().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Outputs["exit_code"] != 0 {
		t.Errorf("exit code: got %v", resp.Outputs["exit_code"])
	}
	if !strings.Contains(resp.Output, "hello") {
		t.Errorf("scope variables must reach the command, output: %q", resp.Output)
	}
}

func TestShellStep_Failure(t *testing.T) {
	req := shellRequest(t, map[string]any{"command": "echo boom; exit 3"}, nil)

	resp, err := NewShellStep().Execute(context.Background(), req)
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if resp == nil || resp.Outputs["exit_code"] != 3 {
		t.Errorf("exit code must be captured even on failure: %+v", resp)
	}
	if !strings.Contains(resp.Output, "boom") {
		t.Errorf("output must be captured on failure: %q", resp.Output)
	}
}

func TestShellStep_RedactsSecrets(t *testing.T) {
	env := scope.New(map[string]string{"TOKEN": "s3cr3t-value"}, nil)
	env.AddSecret("s3cr3t-value")

	req := shellRequest(t, map[string]any{"command": "echo token is $TOKEN"}, env)

	resp, err := NewShellStep().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(resp.Output, "s3cr3t-value") {
		t.Errorf("secret leaked into output: %q", resp.Output)
	}
	if !strings.Contains(resp.Output, scope.Redacted) {
		t.Errorf("secret must be masked, output: %q", resp.Output)
	}
}

func TestShellStep_MissingCommand(t *testing.T) {
	req := shellRequest(t, map[string]any{}, nil)

	if _, err := NewShellStep().Execute(context.Background(), req); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestShellStep_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := shellRequest(t, map[string]any{"command": "sleep 5"}, nil)

	_, err := NewShellStep().Execute(ctx, req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestNotifyStep(t *testing.T) {
	sink := &fakeSink{}
	env := scope.New(map[string]string{}, nil)
	env.AddSecret("hunter2")

	req := &Request{
		Step:     &domain.StepDef{Kind: domain.KindNotify, Config: map[string]any{"message": "password hunter2 rotated", "level": notify.LevelWarning}},
		Path:     "post-1",
		RunID:    "run-1",
		Pipeline: "demo",
		Env:      env,
	}

	resp, err := NewNotifyStep(sink).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Outputs["level"] != notify.LevelWarning {
		t.Errorf("level output: got %v", resp.Outputs["level"])
	}

	if len(sink.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sink.messages))
	}
	msg := sink.messages[0]
	if strings.Contains(msg.Text, "hunter2") {
		t.Errorf("secret leaked into notification: %q", msg.Text)
	}
	if msg.RunID != "run-1" || msg.StagePath != "post-1" {
		t.Errorf("message fields: %+v", msg)
	}
}

func TestNotifyStep_MissingMessage(t *testing.T) {
	req := &Request{Step: &domain.StepDef{Kind: domain.KindNotify, Config: map[string]any{}}}

	if _, err := NewNotifyStep(&fakeSink{}).Execute(context.Background(), req); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestArchiveStep(t *testing.T) {
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, "app.bin"), []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := artifact.NewLocalStore(t.TempDir())
	req := &Request{
		Step:    &domain.StepDef{Kind: domain.KindArchive, Config: map[string]any{"artifacts": "*.bin"}},
		RunID:   "run-1",
		WorkDir: work,
	}

	resp, err := NewArchiveStep(store).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Outputs["count"] != 1 {
		t.Errorf("count: got %v", resp.Outputs["count"])
	}
}

func TestArchiveStep_AllowEmpty(t *testing.T) {
	store := artifact.NewLocalStore(t.TempDir())

	req := &Request{
		Step:    &domain.StepDef{Kind: domain.KindArchive, Config: map[string]any{"artifacts": "*.jar"}},
		RunID:   "run-1",
		WorkDir: t.TempDir(),
	}

	if _, err := NewArchiveStep(store).Execute(context.Background(), req); err == nil {
		t.Error("empty match without allow_empty must fail")
	}

	req.Step.Config["allow_empty"] = true
	resp, err := NewArchiveStep(store).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("allow_empty must tolerate empty match: %v", err)
	}
	if resp.Outputs["count"] != 0 {
		t.Errorf("count: got %v", resp.Outputs["count"])
	}
}

func TestApprovalStep(t *testing.T) {
	broker := approval.NewBroker()
	step := NewApprovalStep(broker)

	req := &Request{
		Step:  &domain.StepDef{Kind: domain.KindApproval, Config: map[string]any{"message": "ship it?"}},
		Path:  "deploy/gate",
		RunID: "run-1",
	}

	type result struct {
		resp *Response
		err  error
	}
	got := make(chan result, 1)
	go func() {
		resp, err := step.Execute(context.Background(), req)
		got <- result{resp, err}
	}()

	deadline := time.Now().Add(time.Second)
	for len(broker.Pending()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("approval request never registered")
		}
		time.Sleep(time.Millisecond)
	}

	pending := broker.Pending()[0]
	if pending.Message != "ship it?" || pending.RunID != "run-1" {
		t.Errorf("pending request: %+v", pending)
	}

	if err := broker.Resolve(pending.ID, approval.Decision{Approved: true, By: "lead"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	r := <-got
	if r.err != nil {
		t.Fatalf("execute: %v", r.err)
	}
	if r.resp.Outputs["approved"] != true || r.resp.Outputs["by"] != "lead" {
		t.Errorf("outputs: %+v", r.resp.Outputs)
	}
}

func TestCheckoutStep(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "README.md"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	work := t.TempDir()
	req := &Request{
		Step:    &domain.StepDef{Kind: domain.KindCheckout, Config: map[string]any{"repo": src}},
		RunID:   "run-1",
		WorkDir: work,
	}

	resp, err := NewCheckoutStep(scm.LocalProvider{}).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Outputs["revision"] == "" {
		t.Error("revision output must be set")
	}
	if _, err := os.Stat(filepath.Join(work, "README.md")); err != nil {
		t.Errorf("working copy missing: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry(Deps{
		Sink:      &fakeSink{},
		Artifacts: artifact.NewLocalStore(t.TempDir()),
		Approvals: approval.NewBroker(),
		SCM:       scm.LocalProvider{},
	})

	for _, kind := range domain.BuiltinKinds() {
		if !r.Has(kind) {
			t.Errorf("builtin kind %s not registered", kind)
		}
	}

	if _, err := r.Get("teleport"); !errors.Is(err, ErrStepNotFound) {
		t.Errorf("expected ErrStepNotFound, got %v", err)
	}

	kinds := r.Kinds()
	if len(kinds) != len(domain.BuiltinKinds()) {
		t.Errorf("kinds: got %v", kinds)
	}
}
