package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/plan"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval  = 10 * time.Second
	defaultBatchSize     = 100
	defaultMaxConcurrent = 10
)

// Runner выполняет pending runs.
//
// Runner:
//   - Получает новые runs из очереди RabbitMQ (event-driven)
//   - Периодически проверяет pending runs в БД (polling fallback)
//   - Компилирует нужную версию pipeline в Plan
//   - Выполняет Plan движком в отдельной горутине
//   - Сохраняет терминальный статус и RunResult в БД
type Runner struct {
	runRepo      *repo.RunRepo
	pipelineRepo *repo.PipelineRepo
	engine       *engine.Engine

	publisher *mq.Publisher
	conn      *mq.Connection
	consumer  *mq.Consumer

	// Активные runs (runID → cancel выполнения)
	active map[uuid.UUID]context.CancelFunc
	mu     sync.RWMutex

	// Ограничение параллельных runs
	slots chan struct{}

	pollInterval time.Duration
	batchSize    int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Runner.
type Config struct {
	RunRepo      *repo.RunRepo
	PipelineRepo *repo.PipelineRepo
	Engine       *engine.Engine

	// Conn — соединение с RabbitMQ для consumer run.pending.
	// Nil — только polling.
	Conn *mq.Connection

	// Publisher — публикация run.finished. Опционально.
	Publisher *mq.Publisher

	PollInterval  time.Duration // интервал polling (default: 10s)
	BatchSize     int           // количество runs за один poll (default: 100)
	MaxConcurrent int           // максимум параллельных runs (default: 10)

	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		runRepo:      cfg.RunRepo,
		pipelineRepo: cfg.PipelineRepo,
		engine:       cfg.Engine,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		active:       make(map[uuid.UUID]context.CancelFunc),
		slots:        make(chan struct{}, maxConcurrent),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Runner: consumer run.pending (если настроен Conn)
// и polling горутину.
func (r *Runner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel

	r.logger.Info("starting runner",
		"poll_interval", r.pollInterval,
		"batch_size", r.batchSize,
		"max_concurrent", cap(r.slots),
	)

	if r.conn != nil {
		r.consumer = mq.NewConsumer(r.conn, r.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsPending),
			Handler:  r.handleRunPending,
			Prefetch: 10,
		})

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("run consumer error", "error", err)
			}
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.pollLoop(ctx)
	}()

	r.logger.Info("runner started")
	return nil
}

// Stop останавливает Runner и дожидается завершения активных runs.
// Выполняющиеся runs получают отмену контекста и завершаются ABORTED.
func (r *Runner) Stop() {
	r.logger.Info("stopping runner...")

	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	if r.consumer != nil {
		r.consumer.Stop()
	}

	r.wg.Wait()

	r.logger.Info("runner stopped")
}

// Cancel отменяет выполняющийся run. Run завершится со статусом ABORTED.
func (r *Runner) Cancel(runID uuid.UUID) error {
	r.mu.RLock()
	cancel, ok := r.active[runID]
	r.mu.RUnlock()

	if !ok {
		return ErrRunNotActive
	}

	cancel()
	return nil
}

// ActiveCount возвращает количество выполняющихся runs.
func (r *Runner) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// handleRunPending обрабатывает событие о новом pending run.
func (r *Runner) handleRunPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&delivery.Message)
	if err != nil {
		r.logger.Error("failed to parse run.pending payload", "error", err)
		return err
	}

	runID, err := uuid.Parse(payload.RunID)
	if err != nil {
		r.logger.Error("bad run_id in run.pending payload", "run_id", payload.RunID)
		// Сообщение невосстановимо — ack и в DLQ не отправляем
		return nil
	}

	r.logger.Debug("received run.pending event", "run_id", runID)

	if err := r.launch(ctx, runID); err != nil {
		if errors.Is(err, ErrRunNotPending) || errors.Is(err, ErrRunAlreadyActive) {
			r.logger.Debug("run not launched", "run_id", runID, "reason", err)
			return nil
		}
		r.logger.Error("failed to launch run", "run_id", runID, "error", err)
		return err
	}

	return nil
}

// pollLoop — цикл polling для fallback.
func (r *Runner) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем runs,
	// созданные пока runner был выключен)
	r.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (r *Runner) poll(ctx context.Context) {
	runs, err := r.runRepo.ListPending(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to list pending runs", "error", err)
		return
	}

	if len(runs) == 0 {
		return
	}

	r.logger.Debug("poll found pending runs", "count", len(runs))

	for i := range runs {
		run := &runs[i]

		if r.isActive(run.ID) {
			continue
		}

		if err := r.launch(ctx, run.ID); err != nil {
			if errors.Is(err, ErrRunNotPending) || errors.Is(err, ErrRunAlreadyActive) {
				continue
			}
			r.logger.Error("failed to launch run from poll",
				"run_id", run.ID,
				"error", err,
			)
		}
	}
}

// launch загружает run, компилирует Plan и запускает выполнение.
func (r *Runner) launch(ctx context.Context, runID uuid.UUID) error {
	run, err := r.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != domain.StatusPending {
		return ErrRunNotPending
	}

	version, err := r.pipelineRepo.GetVersion(ctx, run.PipelineID, run.Version)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return r.failRun(ctx, run,
				fmt.Sprintf("pipeline version not found: %s v%d", run.PipelineID, run.Version))
		}
		return fmt.Errorf("get pipeline version: %w", err)
	}

	// Компиляция до перевода в RUNNING: битое определение
	// падает сразу, без фантомного запуска
	compiled, err := plan.Compile(&version.Definition, plan.Options{Params: run.Parameters})
	if err != nil {
		return r.failRun(ctx, run, fmt.Sprintf("compile failed: %v", err))
	}

	// Слот параллельности
	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if _, exists := r.active[runID]; exists {
		r.mu.Unlock()
		cancel()
		<-r.slots
		return ErrRunAlreadyActive
	}
	r.active[runID] = cancel
	r.mu.Unlock()

	run.MarkRunning()
	if err := r.runRepo.Update(ctx, run); err != nil {
		r.removeActive(runID)
		cancel()
		<-r.slots
		return fmt.Errorf("update run to running: %w", err)
	}

	r.logger.Info("run started",
		"run_id", runID,
		"pipeline_id", run.PipelineID,
		"version", run.Version,
	)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.slots }()
		defer cancel()
		defer r.removeActive(runID)

		r.execute(runCtx, run, compiled)
	}()

	return nil
}

// execute выполняет скомпилированный Plan и сохраняет результат.
func (r *Runner) execute(ctx context.Context, run *domain.Run, compiled *plan.Plan) {
	result, err := r.engine.Run(ctx, compiled, engine.RunOptions{
		RunID:  run.ID,
		Params: run.Parameters,
	})
	if err != nil {
		// Движок не смог даже начать (nil plan, workdir)
		r.finishRun(run, domain.StatusFailure, err.Error())
		return
	}

	var errMsg string
	if result.Status == domain.StatusFailure || result.Status == domain.StatusAborted {
		if failed := result.FailedNodes(); len(failed) > 0 {
			errMsg = fmt.Sprintf("stages failed: %v", failed)
		} else {
			errMsg = string(result.Status)
		}
	}

	r.finishRun(run, result.Status, errMsg)
	r.saveResult(result)

	if r.publisher != nil {
		pubCtx, pubCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer pubCancel()
		err := r.publisher.PublishRunFinished(pubCtx, mq.RunFinishedPayload{
			RunID:    run.ID.String(),
			Pipeline: result.Pipeline,
			Status:   result.Status,
		})
		if err != nil {
			r.logger.Warn("failed to publish run.finished",
				"run_id", run.ID,
				"error", err,
			)
		}
	}

	r.logger.Info("run finished",
		"run_id", run.ID,
		"status", result.Status,
		"duration", result.Duration(),
	)
}

// finishRun фиксирует терминальный статус run в БД.
// Запись идёт под фоновым контекстом: отмена run не должна
// терять его терминальный статус.
func (r *Runner) finishRun(run *domain.Run, status domain.Status, errMsg string) {
	run.MarkFinished(status, errMsg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.runRepo.Update(ctx, run); err != nil {
		r.logger.Error("failed to persist run status",
			"run_id", run.ID,
			"status", status,
			"error", err,
		)
	}
}

// saveResult сохраняет RunResult в БД.
func (r *Runner) saveResult(result *domain.RunResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.runRepo.SaveResult(ctx, result); err != nil {
		r.logger.Error("failed to save run result",
			"run_id", result.RunID,
			"error", err,
		)
	}
}

// failRun переводит run в FAILURE до начала выполнения.
func (r *Runner) failRun(ctx context.Context, run *domain.Run, errMsg string) error {
	run.MarkFinished(domain.StatusFailure, errMsg)

	if err := r.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to failed: %w", err)
	}

	r.logger.Warn("run failed early",
		"run_id", run.ID,
		"error", errMsg,
	)

	return fmt.Errorf("run failed: %s", errMsg)
}

// isActive проверяет, выполняется ли run.
func (r *Runner) isActive(runID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.active[runID]
	return exists
}

// removeActive удаляет run из активных.
func (r *Runner) removeActive(runID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, runID)
}
