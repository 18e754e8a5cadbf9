package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/condition"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/plan"
	"github.com/shaiso/Conveyor/internal/scope"
	"github.com/shaiso/Conveyor/internal/secret"
	"github.com/shaiso/Conveyor/internal/steps"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Config — зависимости движка.
type Config struct {
	// Steps — реестр исполнителей шагов. Обязателен.
	Steps *steps.Registry

	// Agents — пул агентов. Nil — шаги выполняются без слотов.
	Agents agent.Pool

	// Secrets — разрешение ссылок secret://. Nil допустим, если
	// pipeline не использует секреты.
	Secrets secret.Resolver

	// Events — приёмник событий жизненного цикла.
	Events EventSink

	// Metrics — метрики движка.
	Metrics *telemetry.Metrics

	// Logger — базовый логгер.
	Logger *slog.Logger

	// WorkDir — корень рабочих каталогов запусков.
	// Пустое значение — подкаталог во временном каталоге ОС.
	WorkDir string

	// Now — источник времени. Подменяется в тестах.
	Now func() time.Time
}

// Engine выполняет скомпилированные планы.
//
// Потокобезопасен: один Engine обслуживает любое число
// одновременных запусков.
type Engine struct {
	cfg Config
}

// New создаёт движок. Незаполненные поля Config получают значения
// по умолчанию.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Events == nil {
		cfg.Events = nopEvents{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg}
}

// RunOptions — параметры одного запуска.
type RunOptions struct {
	// RunID — идентификатор запуска. Нулевой — сгенерировать.
	RunID uuid.UUID

	// Params — фактические значения параметров pipeline.
	// Дополняются значениями по умолчанию из определения.
	Params map[string]string

	// WorkDir — рабочий каталог запуска. Пустое значение —
	// каталог под Config.WorkDir.
	WorkDir string
}

// Run выполняет план до терминального статуса.
//
// Ошибка возвращается только при невозможности начать выполнение;
// падения стадий выражаются статусами в RunResult.
func (e *Engine) Run(ctx context.Context, p *plan.Plan, opts RunOptions) (*domain.RunResult, error) {
	if p == nil || p.Root == nil {
		return nil, ErrNilPlan
	}

	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	workDir, err := e.ensureWorkDir(opts.WorkDir, runID)
	if err != nil {
		return nil, err
	}

	r := &run{
		e:       e,
		id:      runID,
		plan:    p,
		workDir: workDir,
		log: telemetry.WithPipeline(
			telemetry.WithRunID(e.cfg.Logger, runID.String()),
			p.Definition.Name,
		),
		result: &domain.RunResult{
			RunID:     runID,
			Pipeline:  p.Definition.Name,
			Status:    domain.StatusRunning,
			StartedAt: e.cfg.Now(),
			Nodes:     make(map[string]*domain.NodeResult),
		},
	}

	sc := scope.New(nil, effectiveParams(p.Definition.Parameters, opts.Params))

	r.log.Info("run started")
	e.cfg.Events.RunStarted(ctx, runID.String(), p.Definition.Name)
	e.cfg.Metrics.ActiveRuns.Inc()
	defer e.cfg.Metrics.ActiveRuns.Dec()

	status := r.execNode(ctx, p.Root, sc)

	// Эскалация post-действий деградирует успешный итог
	if r.wasEscalated() && status == domain.StatusSuccess {
		status = domain.StatusUnstable
	}

	r.result.Status = status
	r.result.FinishedAt = e.cfg.Now()

	r.log.Info("run finished", "status", status, "duration", r.result.Duration())
	e.cfg.Events.RunFinished(ctx, runID.String(), p.Definition.Name, status)
	e.cfg.Metrics.RunsTotal.WithLabelValues(p.Definition.Name, string(status)).Inc()

	return r.result, nil
}

// ensureWorkDir готовит рабочий каталог запуска.
func (e *Engine) ensureWorkDir(dir string, runID uuid.UUID) (string, error) {
	if dir == "" {
		base := e.cfg.WorkDir
		if base == "" {
			base = filepath.Join(os.TempDir(), "conveyor")
		}
		dir = filepath.Join(base, runID.String())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// effectiveParams накладывает фактические параметры на значения
// по умолчанию из определения.
func effectiveParams(defs []domain.ParameterDef, actual map[string]string) map[string]string {
	params := make(map[string]string, len(defs)+len(actual))
	for _, d := range defs {
		params[d.Name] = d.Default
	}
	for name, value := range actual {
		params[name] = value
	}
	return params
}

// run — состояние одного запуска.
type run struct {
	e       *Engine
	id      uuid.UUID
	plan    *plan.Plan
	workDir string
	log     *slog.Logger

	mu        sync.Mutex
	result    *domain.RunResult
	escalated bool
}

// execNode доводит узел до терминального статуса.
func (r *run) execNode(ctx context.Context, node *plan.Node, sc *scope.Scope) domain.Status {
	nr := r.beginNode(node)

	if ctx.Err() != nil {
		return r.finishNode(node, nr, domain.StatusAborted, "run cancelled")
	}

	if !condition.Evaluate(node.When, sc) {
		r.log.Debug("stage skipped", "stage", node.Path, "reason", "condition not met")
		return r.finishNode(node, nr, domain.StatusSkipped, "condition not met")
	}

	bindings, err := r.resolveEnv(ctx, node.Env, sc)
	if err != nil {
		return r.finishNode(node, nr, domain.StatusFailure, sc.Redact(err.Error()))
	}
	sc.Push(bindings)
	defer sc.Pop()

	nodeCtx := ctx
	if node.Timeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	}

	var status domain.Status
	if node.IsLeaf() {
		status = r.execStep(nodeCtx, node, sc, nr)
	} else {
		status = r.execChildren(nodeCtx, node, sc)
	}

	// Истёкший собственный таймаут — FAILURE узла с меткой TimedOut,
	// а не ABORTED: отмена пришла не от пользователя.
	if errors.Is(nodeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil &&
		(status == domain.StatusFailure || status == domain.StatusAborted) {
		status = domain.StatusFailure
		nr.TimedOut = true
		nr.Reason = "stage timeout exceeded"
	}

	status = r.finishNode(node, nr, status, nr.Reason)

	// Post-действия выполняются после фиксации статуса, внутри
	// области стадии, и не зависят от её таймаута.
	r.runPost(context.WithoutCancel(ctx), node, sc, nr, status)

	return status
}

// execChildren выполняет детей стадии в её режиме.
func (r *run) execChildren(ctx context.Context, node *plan.Node, sc *scope.Scope) domain.Status {
	if node.Mode == domain.ModeParallel && len(node.Children) > 1 {
		return r.execParallel(ctx, node, sc)
	}

	agg := domain.StatusSuccess
	var stopCause domain.Status
	for _, child := range node.Children {
		// Отмена и падение останавливают цепочку по-разному:
		// незапущенные сиблинги прерванного ребёнка — ABORTED,
		// сиблинги упавшего — SKIPPED.
		switch stopCause {
		case domain.StatusAborted:
			r.abortNode(child, "run cancelled")
			continue
		case domain.StatusFailure:
			r.skipNode(child, "previous stage failed")
			continue
		}

		st := r.execNode(ctx, child, sc)
		agg = domain.Worse(agg, st)

		if (st == domain.StatusFailure || st == domain.StatusAborted) && !node.ContinueOnFailure {
			stopCause = st
		}
	}
	return agg
}

// execParallel выполняет детей в горутинах и дожидается всех.
//
// Падение ребёнка не прерывает сиблингов: ветки дорабатывают до
// конца, статус стадии — худший среди всех.
func (r *run) execParallel(ctx context.Context, node *plan.Node, sc *scope.Scope) domain.Status {
	statuses := make([]domain.Status, len(node.Children))

	var wg sync.WaitGroup
	for i, child := range node.Children {
		wg.Add(1)
		go func(i int, child *plan.Node, fork *scope.Scope) {
			defer wg.Done()
			statuses[i] = r.execNode(ctx, child, fork)
		}(i, child, sc.Fork())
	}
	wg.Wait()

	agg := domain.StatusSuccess
	for _, st := range statuses {
		agg = domain.Worse(agg, st)
	}
	return agg
}

// execStep выполняет листовой шаг с повторами.
func (r *run) execStep(ctx context.Context, node *plan.Node, sc *scope.Scope, nr *domain.NodeResult) domain.Status {
	impl, err := r.e.cfg.Steps.Get(node.Step.Kind)
	if err != nil {
		nr.Reason = err.Error()
		return domain.StatusFailure
	}

	if r.e.cfg.Agents != nil && node.Agent != "" {
		lease, err := r.e.cfg.Agents.Acquire(ctx, node.Agent)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				nr.Reason = "run cancelled"
				return domain.StatusAborted
			}
			if errors.Is(err, context.DeadlineExceeded) {
				nr.Reason = "timed out waiting for agent"
				nr.TimedOut = true
				return domain.StatusFailure
			}
			nr.Reason = err.Error()
			return domain.StatusFailure
		}
		defer lease.Release()
	}

	attempts := node.Retry + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		nr.Attempts = attempt
		if attempt > 1 {
			r.log.Info("retrying step", "step", node.Path, "attempt", attempt)
			r.e.cfg.Metrics.StepRetries.WithLabelValues(r.plan.Definition.Name).Inc()
		}

		req := &steps.Request{
			Step:     node.Step,
			Path:     node.Path,
			RunID:    r.id.String(),
			Pipeline: r.plan.Definition.Name,
			WorkDir:  r.workDir,
			Env:      sc,
			Agent:    node.Agent,
			Logger:   telemetry.WithStage(r.log, node.Path),
		}

		resp, err := impl.Execute(ctx, req)
		if resp != nil {
			nr.Output = resp.Output
		}
		if err == nil {
			return domain.StatusSuccess
		}
		lastErr = err

		if errors.Is(err, context.DeadlineExceeded) {
			nr.Reason = "step timed out"
			nr.TimedOut = true
			return domain.StatusFailure
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			break
		}
	}

	if errors.Is(lastErr, context.Canceled) {
		nr.Reason = "run cancelled"
		return domain.StatusAborted
	}
	nr.Reason = sc.Redact(lastErr.Error())
	return domain.StatusFailure
}

// runPost выполняет post-действия узла в порядке объявления.
func (r *run) runPost(ctx context.Context, node *plan.Node, sc *scope.Scope, nr *domain.NodeResult, status domain.Status) {
	if len(node.Post) == 0 {
		return
	}

	trigger := status.Trigger()

	for i := range node.Post {
		pa := &node.Post[i]
		if pa.Trigger != domain.TriggerAlways && pa.Trigger != trigger {
			continue
		}

		path := node.Path
		if path == "" {
			path = fmt.Sprintf("post-%d", i+1)
		} else {
			path = fmt.Sprintf("%s/post-%d", node.Path, i+1)
		}

		if err := r.execPostStep(ctx, pa, path, node, sc); err != nil {
			reason := sc.Redact(err.Error())
			r.log.Warn("post action failed", "post", path, "error", reason)

			r.mu.Lock()
			nr.PostErrors = append(nr.PostErrors, reason)
			if pa.Escalate {
				r.escalated = true
			}
			r.mu.Unlock()
		}
	}
}

// execPostStep выполняет один post-шаг.
func (r *run) execPostStep(ctx context.Context, pa *domain.PostActionDef, path string, node *plan.Node, sc *scope.Scope) error {
	impl, err := r.e.cfg.Steps.Get(pa.Step.Kind)
	if err != nil {
		return err
	}

	req := &steps.Request{
		Step:     &pa.Step,
		Path:     path,
		RunID:    r.id.String(),
		Pipeline: r.plan.Definition.Name,
		WorkDir:  r.workDir,
		Env:      sc,
		Agent:    node.Agent,
		Logger:   telemetry.WithStage(r.log, path),
	}

	_, err = impl.Execute(ctx, req)
	return err
}

// resolveEnv готовит кадр области узла, разрешая ссылки на секреты.
func (r *run) resolveEnv(ctx context.Context, env map[string]string, sc *scope.Scope) (map[string]string, error) {
	if len(env) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(env))
	for name, value := range env {
		if !secret.IsRef(value) {
			out[name] = value
			continue
		}

		if r.e.cfg.Secrets == nil {
			return nil, fmt.Errorf("%w: no resolver configured for %s", ErrSecretResolve, name)
		}
		resolved, err := r.e.cfg.Secrets.Resolve(ctx, secret.RefID(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSecretResolve, name, err)
		}

		sc.AddSecret(resolved)
		out[name] = resolved
	}
	return out, nil
}

// beginNode регистрирует запись узла в результате.
func (r *run) beginNode(node *plan.Node) *domain.NodeResult {
	now := r.e.cfg.Now()
	nr := &domain.NodeResult{
		Path:      node.Path,
		Status:    domain.StatusRunning,
		StartedAt: &now,
	}

	r.mu.Lock()
	r.result.Nodes[node.Path] = nr
	r.mu.Unlock()

	return nr
}

// finishNode фиксирует терминальный статус узла и публикует событие.
func (r *run) finishNode(node *plan.Node, nr *domain.NodeResult, status domain.Status, reason string) domain.Status {
	now := r.e.cfg.Now()

	r.mu.Lock()
	nr.Status = status
	if reason != "" {
		nr.Reason = reason
	}
	nr.FinishedAt = &now
	r.mu.Unlock()

	if node.Kind == plan.NodeStage && node.Path != "" {
		duration := now.Sub(*nr.StartedAt)
		r.e.cfg.Events.StageFinished(context.Background(), r.id.String(), node.Path, status, duration)
		r.e.cfg.Metrics.StageDuration.
			WithLabelValues(r.plan.Definition.Name, string(status)).
			Observe(duration.Seconds())
	}
	return status
}

// skipNode помечает невыполненный узел пропущенным.
func (r *run) skipNode(node *plan.Node, reason string) {
	nr := r.beginNode(node)
	r.finishNode(node, nr, domain.StatusSkipped, reason)
}

// abortNode помечает незапущенный узел прерванным.
func (r *run) abortNode(node *plan.Node, reason string) {
	nr := r.beginNode(node)
	r.finishNode(node, nr, domain.StatusAborted, reason)
}

// wasEscalated сообщает, была ли эскалация post-действий.
func (r *run) wasEscalated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.escalated
}
