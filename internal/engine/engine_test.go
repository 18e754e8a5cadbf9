package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/plan"
	"github.com/shaiso/Conveyor/internal/steps"
)

// probeStep — управляемый исполнитель для тестов движка.
//
// Поведение задаётся по пути узла: сколько раз упасть, сколько
// работать. Все вызовы записываются.
type probeStep struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]int // путь → оставшиеся падения (-1 — всегда)
	block   map[string]time.Duration
	capture string            // имя переменной для снятия из области
	seen    map[string]string // путь → значение переменной
}

func newProbe() *probeStep {
	return &probeStep{
		fail:  make(map[string]int),
		block: make(map[string]time.Duration),
		seen:  make(map[string]string),
	}
}

func (p *probeStep) Kind() string { return "probe" }

func (p *probeStep) Execute(ctx context.Context, req *steps.Request) (*steps.Response, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req.Path)
	remaining := p.fail[req.Path]
	if remaining > 0 {
		p.fail[req.Path]--
	}
	delay := p.block[req.Path]
	if p.capture != "" && req.Env != nil {
		p.seen[req.Path] = req.Env.Get(p.capture)
	}
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if remaining != 0 {
		return nil, fmt.Errorf("probe failure at %s", req.Path)
	}
	return steps.NewResponse(nil), nil
}

func (p *probeStep) called(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == path {
			n++
		}
	}
	return n
}

// probeStage — листовая стадия с одним probe-шагом.
func probeStage(name string) domain.StageDef {
	return domain.StageDef{
		Name:  name,
		Steps: []domain.StepDef{{Name: "do", Kind: "probe"}},
	}
}

func compilePlan(t *testing.T, def *domain.PipelineDefinition) *plan.Plan {
	t.Helper()
	p, err := plan.Compile(def, plan.Options{Kinds: []string{"probe"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func newTestEngine(t *testing.T, probe *probeStep) *Engine {
	t.Helper()
	reg := steps.NewRegistry()
	reg.Register(probe)
	return New(Config{Steps: reg, WorkDir: t.TempDir()})
}

func TestRun_AllSuccess(t *testing.T) {
	probe := newProbe()
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("build"), probeStage("test")},
	})

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Status != domain.StatusSuccess {
		t.Errorf("status: got %s", result.Status)
	}
	if probe.called("build/do") != 1 || probe.called("test/do") != 1 {
		t.Errorf("all steps must run exactly once: %v", probe.calls)
	}
	if result.Node("build").Status != domain.StatusSuccess {
		t.Errorf("build stage: %+v", result.Node("build"))
	}
}

func TestRun_SequentialStopOnFailure(t *testing.T) {
	probe := newProbe()
	probe.fail["b/do"] = -1
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("a"), probeStage("b"), probeStage("c")},
	})

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Status != domain.StatusFailure {
		t.Errorf("status: got %s", result.Status)
	}
	if probe.called("c/do") != 0 {
		t.Error("stage after failure must not execute")
	}
	if result.Node("c").Status != domain.StatusSkipped {
		t.Errorf("skipped sibling: %+v", result.Node("c"))
	}
	if result.Node("b").Status != domain.StatusFailure {
		t.Errorf("failed stage: %+v", result.Node("b"))
	}
}

func TestRun_ContinueOnFailure(t *testing.T) {
	probe := newProbe()
	probe.fail["b/do"] = -1
	e := newTestEngine(t, probe)

	def := &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("a"), probeStage("b"), probeStage("c")},
	}
	def.Options.ContinueOnFailure = true

	result, err := e.Run(context.Background(), compilePlan(t, def), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if probe.called("c/do") != 1 {
		t.Error("continue_on_failure must keep the queue going")
	}
	if result.Status != domain.StatusFailure {
		t.Errorf("status stays FAILURE: got %s", result.Status)
	}
}

func TestRun_ParallelDrain(t *testing.T) {
	probe := newProbe()
	probe.fail["fan/fast/do"] = -1
	probe.block["fan/slow/do"] = 100 * time.Millisecond
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name: "demo",
		Stages: []domain.StageDef{{
			Name:   "fan",
			Mode:   domain.ModeParallel,
			Stages: []domain.StageDef{probeStage("fast"), probeStage("slow")},
		}},
	})

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Упавшая ветка не прерывает сиблингов
	if result.Node("fan/slow").Status != domain.StatusSuccess {
		t.Errorf("slow branch must drain to completion: %+v", result.Node("fan/slow"))
	}
	if result.Node("fan").Status != domain.StatusFailure {
		t.Errorf("parallel stage aggregates worst status: %+v", result.Node("fan"))
	}
	if result.Status != domain.StatusFailure {
		t.Errorf("status: got %s", result.Status)
	}
}

func TestRun_ParallelAllSuccess(t *testing.T) {
	probe := newProbe()
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name: "demo",
		Stages: []domain.StageDef{{
			Name:   "fan",
			Mode:   domain.ModeParallel,
			Stages: []domain.StageDef{probeStage("x"), probeStage("y"), probeStage("z")},
		}},
	})

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != domain.StatusSuccess {
		t.Errorf("status: got %s", result.Status)
	}
	for _, path := range []string{"fan/x/do", "fan/y/do", "fan/z/do"} {
		if probe.called(path) != 1 {
			t.Errorf("branch %s: %d calls", path, probe.called(path))
		}
	}
}

func TestRun_ConditionSkip(t *testing.T) {
	probe := newProbe()
	e := newTestEngine(t, probe)

	deploy := probeStage("deploy")
	deploy.When = &domain.Predicate{Branch: "main"}

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Env:    map[string]string{domain.BranchVar: "feature"},
		Stages: []domain.StageDef{probeStage("build"), deploy},
	})

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if probe.called("deploy/do") != 0 {
		t.Error("skipped stage must not execute any steps")
	}
	if result.Node("deploy").Status != domain.StatusSkipped {
		t.Errorf("deploy: %+v", result.Node("deploy"))
	}
	// SKIPPED нейтрален для агрегации
	if result.Status != domain.StatusSuccess {
		t.Errorf("status: got %s", result.Status)
	}
}

func TestRun_RetrySucceedsEventually(t *testing.T) {
	probe := newProbe()
	probe.fail["flaky/do"] = 2
	e := newTestEngine(t, probe)

	flaky := probeStage("flaky")
	flaky.Options.Retry = 2

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{flaky},
	})

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Status != domain.StatusSuccess {
		t.Errorf("status: got %s", result.Status)
	}
	if got := probe.called("flaky/do"); got != 3 {
		t.Errorf("expected 3 invocations, got %d", got)
	}
	if result.Node("flaky/do").Attempts != 3 {
		t.Errorf("attempts: %+v", result.Node("flaky/do"))
	}
}

func TestRun_RetryExhausted(t *testing.T) {
	probe := newProbe()
	probe.fail["flaky/do"] = -1
	e := newTestEngine(t, probe)

	flaky := probeStage("flaky")
	flaky.Options.Retry = 1

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{flaky},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Status != domain.StatusFailure {
		t.Errorf("status: got %s", result.Status)
	}
	if got := probe.called("flaky/do"); got != 2 {
		t.Errorf("retry 1 means 2 invocations, got %d", got)
	}
}

func TestRun_StageTimeout(t *testing.T) {
	probe := newProbe()
	probe.block["slow/do"] = 10 * time.Second
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("slow"), probeStage("after")},
	})
	// Субсекундный таймаут нельзя выразить в определении
	p.Find("slow").Timeout = 50 * time.Millisecond

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	slow := result.Node("slow")
	if slow.Status != domain.StatusFailure || !slow.TimedOut {
		t.Errorf("timed out stage: %+v", slow)
	}
	if result.Node("slow/do").TimedOut != true {
		t.Errorf("timed out step: %+v", result.Node("slow/do"))
	}
	if result.Status != domain.StatusFailure {
		t.Errorf("status: got %s", result.Status)
	}
	if result.Node("after").Status != domain.StatusSkipped {
		t.Errorf("sibling after timeout: %+v", result.Node("after"))
	}
}

func TestRun_Cancel(t *testing.T) {
	probe := newProbe()
	probe.block["slow/do"] = 10 * time.Second
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("slow")},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := e.Run(ctx, p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Status != domain.StatusAborted {
		t.Errorf("status: got %s", result.Status)
	}
	if result.Node("slow").Status != domain.StatusAborted {
		t.Errorf("aborted stage: %+v", result.Node("slow"))
	}
}

func TestRun_CancelAbortsUnstartedSiblings(t *testing.T) {
	probe := newProbe()
	probe.block["b/do"] = 10 * time.Second
	e := newTestEngine(t, probe)

	p := compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("a"), probeStage("b"), probeStage("c")},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := e.Run(ctx, p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Node("a").Status != domain.StatusSuccess {
		t.Errorf("finished stage keeps its status: %+v", result.Node("a"))
	}
	if result.Node("b").Status != domain.StatusAborted {
		t.Errorf("running stage: %+v", result.Node("b"))
	}
	// Незапущенный сиблинг после отмены — ABORTED, не SKIPPED
	c := result.Node("c")
	if c.Status != domain.StatusAborted {
		t.Errorf("unstarted sibling after cancel: %+v", c)
	}
	if c.Reason != "run cancelled" {
		t.Errorf("reason: got %q", c.Reason)
	}
	if probe.called("c/do") != 0 {
		t.Error("unstarted stage must not execute any steps")
	}
	if result.Status != domain.StatusAborted {
		t.Errorf("status: got %s", result.Status)
	}
}

func TestRun_ApprovalGateStageTimeout(t *testing.T) {
	probe := newProbe()
	reg := steps.NewRegistry()
	reg.Register(probe)
	reg.Register(steps.NewApprovalStep(approval.NewBroker()))
	e := New(Config{Steps: reg, WorkDir: t.TempDir()})

	p, err := plan.Compile(&domain.PipelineDefinition{
		Name: "demo",
		Stages: []domain.StageDef{
			{Name: "gate", Steps: []domain.StepDef{{Name: "confirm", Kind: domain.KindApproval}}},
			probeStage("after"),
		},
	}, plan.Options{Kinds: []string{"probe", domain.KindApproval}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	p.Find("gate").Timeout = 50 * time.Millisecond

	result, err := e.Run(context.Background(), p, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Никто не ответил до таймаута стадии: FAILURE с меткой таймаута
	gate := result.Node("gate")
	if gate.Status != domain.StatusFailure || !gate.TimedOut {
		t.Errorf("timed out approval stage: %+v", gate)
	}
	if result.Node("after").Status != domain.StatusSkipped {
		t.Errorf("sibling after timeout: %+v", result.Node("after"))
	}
	if result.Status != domain.StatusFailure {
		t.Errorf("status: got %s", result.Status)
	}
}

func TestRun_EnvScoping(t *testing.T) {
	probe := newProbe()
	probe.capture = "TARGET"
	e := newTestEngine(t, probe)

	inner := probeStage("inner")
	inner.Env = map[string]string{"TARGET": "staging"}

	p := compilePlan(t, &domain.PipelineDefinition{
		Name: "demo",
		Env:  map[string]string{"TARGET": "prod"},
		Stages: []domain.StageDef{
			{Name: "outer", Stages: []domain.StageDef{inner}},
			probeStage("sibling"),
		},
	})

	if _, err := e.Run(context.Background(), p, RunOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Вложенная стадия видит своё переопределение
	if got := probe.seen["outer/inner/do"]; got != "staging" {
		t.Errorf("inner: got %q", got)
	}
	// Сиблинг после выхода из области видит глобальное значение
	if got := probe.seen["sibling/do"]; got != "prod" {
		t.Errorf("sibling: got %q", got)
	}
}

func TestRun_PostActions(t *testing.T) {
	probe := newProbe()
	probe.fail["bad/do"] = -1
	e := newTestEngine(t, probe)

	bad := probeStage("bad")
	bad.Post = []domain.PostActionDef{
		{Trigger: domain.TriggerFailure, Step: domain.StepDef{Kind: "probe", Name: "cleanup"}},
		{Trigger: domain.TriggerSuccess, Step: domain.StepDef{Kind: "probe", Name: "celebrate"}},
		{Trigger: domain.TriggerAlways, Step: domain.StepDef{Kind: "probe", Name: "report"}},
	}

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{bad},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if probe.called("bad/post-1") != 1 {
		t.Error("failure post action must run")
	}
	if probe.called("bad/post-2") != 0 {
		t.Error("success post action must not run on failure")
	}
	if probe.called("bad/post-3") != 1 {
		t.Error("always post action must run")
	}
	if result.Node("bad").Status != domain.StatusFailure {
		t.Errorf("post actions must not change the terminal status: %+v", result.Node("bad"))
	}
}

func TestRun_PostFailureDoesNotReopenStatus(t *testing.T) {
	probe := newProbe()
	probe.fail["good/post-1"] = -1
	e := newTestEngine(t, probe)

	good := probeStage("good")
	good.Post = []domain.PostActionDef{
		{Trigger: domain.TriggerAlways, Step: domain.StepDef{Kind: "probe"}},
	}

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{good},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	node := result.Node("good")
	if node.Status != domain.StatusSuccess {
		t.Errorf("stage status must stay SUCCESS: %+v", node)
	}
	if len(node.PostErrors) != 1 {
		t.Errorf("post error must be recorded: %+v", node)
	}
	if result.Status != domain.StatusSuccess {
		t.Errorf("without escalation the run stays SUCCESS: got %s", result.Status)
	}
}

func TestRun_PostEscalationMakesRunUnstable(t *testing.T) {
	probe := newProbe()
	probe.fail["good/post-1"] = -1
	e := newTestEngine(t, probe)

	good := probeStage("good")
	good.Post = []domain.PostActionDef{
		{Trigger: domain.TriggerAlways, Step: domain.StepDef{Kind: "probe"}, Escalate: true},
	}

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{good},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Node("good").Status != domain.StatusSuccess {
		t.Errorf("stage keeps its own status: %+v", result.Node("good"))
	}
	if result.Status != domain.StatusUnstable {
		t.Errorf("escalated run must be UNSTABLE: got %s", result.Status)
	}
}

func TestRun_PipelinePostRunsAfterStages(t *testing.T) {
	probe := newProbe()
	e := newTestEngine(t, probe)

	def := &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("build")},
		Post: []domain.PostActionDef{
			{Trigger: domain.TriggerSuccess, Step: domain.StepDef{Kind: "probe"}},
		},
	}

	result, err := e.Run(context.Background(), compilePlan(t, def), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if probe.called("post-1") != 1 {
		t.Errorf("pipeline post action must run: %v", probe.calls)
	}
	if result.Status != domain.StatusSuccess {
		t.Errorf("status: got %s", result.Status)
	}
}

func TestRun_Parameters(t *testing.T) {
	probe := newProbe()
	probe.capture = "ENVIRONMENT"
	e := newTestEngine(t, probe)

	def := &domain.PipelineDefinition{
		Name: "demo",
		Parameters: []domain.ParameterDef{
			{Name: "ENVIRONMENT", Type: "string", Default: "staging"},
		},
		Stages: []domain.StageDef{probeStage("deploy")},
	}

	// Значение по умолчанию
	if _, err := e.Run(context.Background(), compilePlan(t, def), RunOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := probe.seen["deploy/do"]; got != "staging" {
		t.Errorf("default param: got %q", got)
	}

	// Переопределение при запуске
	_, err := e.Run(context.Background(), compilePlan(t, def), RunOptions{
		Params: map[string]string{"ENVIRONMENT": "prod"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := probe.seen["deploy/do"]; got != "prod" {
		t.Errorf("override param: got %q", got)
	}
}

func TestRun_SecretResolutionAndRedaction(t *testing.T) {
	probe := newProbe()
	probe.capture = "TOKEN"

	reg := steps.NewRegistry()
	reg.Register(probe)

	resolver := newStaticSecrets(map[string]string{"deploy-token": "tval-123"})
	e := New(Config{Steps: reg, Secrets: resolver, WorkDir: t.TempDir()})

	stage := probeStage("deploy")
	stage.Env = map[string]string{"TOKEN": "secret://deploy-token"}

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{stage},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Status != domain.StatusSuccess {
		t.Errorf("status: got %s", result.Status)
	}
	if got := probe.seen["deploy/do"]; got != "tval-123" {
		t.Errorf("secret must be resolved into the scope: got %q", got)
	}
}

func TestRun_SecretResolveFailureFailsStage(t *testing.T) {
	probe := newProbe()
	reg := steps.NewRegistry()
	reg.Register(probe)
	e := New(Config{Steps: reg, Secrets: newStaticSecrets(nil), WorkDir: t.TempDir()})

	stage := probeStage("deploy")
	stage.Env = map[string]string{"TOKEN": "secret://missing"}

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{stage},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Node("deploy").Status != domain.StatusFailure {
		t.Errorf("unresolvable secret fails the stage: %+v", result.Node("deploy"))
	}
	if probe.called("deploy/do") != 0 {
		t.Error("steps must not run after a secret resolution failure")
	}
}

// staticSecrets — резолвер в памяти без зависимости от пакета secret
// в сигнатурах теста.
type staticSecrets struct {
	values map[string]string
}

func newStaticSecrets(values map[string]string) *staticSecrets {
	if values == nil {
		values = map[string]string{}
	}
	return &staticSecrets{values: values}
}

func (s *staticSecrets) Resolve(_ context.Context, id string) (string, error) {
	v, ok := s.values[id]
	if !ok {
		return "", fmt.Errorf("no such secret: %s", id)
	}
	return v, nil
}

func TestRun_ForkIsolationInParallel(t *testing.T) {
	// Переопределение в одной параллельной ветке не видно другой:
	// каждая ветка работает со своей копией области.
	probe := newProbe()
	probe.capture = "SIDE"
	e := newTestEngine(t, probe)

	left := probeStage("left")
	left.Env = map[string]string{"SIDE": "left"}
	right := probeStage("right")

	p := compilePlan(t, &domain.PipelineDefinition{
		Name: "demo",
		Env:  map[string]string{"SIDE": "root"},
		Stages: []domain.StageDef{{
			Name:   "fan",
			Mode:   domain.ModeParallel,
			Stages: []domain.StageDef{left, right},
		}},
	})

	if _, err := e.Run(context.Background(), p, RunOptions{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := probe.seen["fan/left/do"]; got != "left" {
		t.Errorf("left branch: got %q", got)
	}
	if got := probe.seen["fan/right/do"]; got != "root" {
		t.Errorf("right branch must not see sibling override: got %q", got)
	}
}

func TestRun_ResultTimestamps(t *testing.T) {
	probe := newProbe()

	reg := steps.NewRegistry()
	reg.Register(probe)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(Config{
		Steps:   reg,
		WorkDir: t.TempDir(),
		Now:     func() time.Time { return now },
	})

	result, err := e.Run(context.Background(), compilePlan(t, &domain.PipelineDefinition{
		Name:   "demo",
		Stages: []domain.StageDef{probeStage("build")},
	}), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !result.StartedAt.Equal(now) || !result.FinishedAt.Equal(now) {
		t.Errorf("timestamps must come from the injected clock: %+v", result)
	}
	if result.RunID.String() == "" {
		t.Error("run id must be assigned")
	}
}
