// Conveyor Server — единый процесс выполнения pipelines.
//
// Сервер объединяет:
//   - HTTP API для pipelines, runs, approvals и schedules
//   - Runner: забирает pending runs и выполняет их движком
//   - Scheduler: создаёт runs по расписаниям (с лидер-элекцией)
//   - Consumer решений по approvals из RabbitMQ
//   - Prometheus metrics и healthcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/api"
	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/notify"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/runner"
	"github.com/shaiso/Conveyor/internal/scheduler"
	"github.com/shaiso/Conveyor/internal/scm"
	"github.com/shaiso/Conveyor/internal/secret"
	"github.com/shaiso/Conveyor/internal/steps"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// schedLockKey — ключ advisory lock для лидер-элекции планировщика.
const schedLockKey int64 = 0x636f6e76

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-server")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Репозитории
	pipelineRepo := repo.NewPipelineRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Брокер подтверждений
	broker := approval.NewBroker()

	// Метрики движка
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	// Рабочие каталоги и хранилище артефактов
	workDir := os.Getenv("WORK_DIR")
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "conveyor")
	}
	artifactDir := os.Getenv("ARTIFACT_DIR")
	if artifactDir == "" {
		artifactDir = filepath.Join(workDir, "artifacts")
	}

	// Уведомления: всегда в лог, при живом брокере ещё и в очередь
	var sink notify.Sink = notify.NewSlogSink(logger)
	if publisher != nil {
		sink = notify.Multi{sink, mq.NewNotifySink(publisher)}
	}

	// Движок выполнения
	engineCfg := engine.Config{
		Steps: steps.DefaultRegistry(steps.Deps{
			Sink:      sink,
			Artifacts: artifact.NewLocalStore(artifactDir),
			Approvals: broker,
			SCM:       scm.GitProvider{},
		}),
		Agents:  agent.NewLocalPool(agent.Config{Labels: agentLabels()}),
		Secrets: &secret.EnvResolver{Prefix: os.Getenv("SECRET_PREFIX")},
		Metrics: metrics,
		Logger:  logger,
		WorkDir: workDir,
	}
	if publisher != nil {
		engineCfg.Events = mq.NewEngineEvents(publisher, logger)
	}
	eng := engine.New(engineCfg)

	// Runner
	run := runner.New(runner.Config{
		RunRepo:      runRepo,
		PipelineRepo: pipelineRepo,
		Engine:       eng,
		Conn:         mqConn,
		Publisher:    publisher,
		Logger:       logger,
	})
	if err := run.Start(ctx); err != nil {
		logger.Error("failed to start runner", "error", err)
		os.Exit(1)
	}

	// Scheduler: тикает только лидер (advisory lock в Postgres)
	sched := scheduler.New(scheduler.Config{
		ScheduleRepo: scheduleRepo,
		RunRepo:      runRepo,
		PipelineRepo: pipelineRepo,
		Publisher:    publisher,
		Logger:       logger,
	})
	go runSchedulerLoop(ctx, pool, sched, logger)

	// Consumer решений по approvals
	if mqConn != nil {
		decisions := mq.NewDecisionConsumer(mqConn, logger, broker)
		go func() {
			if err := decisions.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("decision consumer stopped", "error", err)
			}
		}()
	}

	// Gauge ожидающих подтверждений
	go func() {
		tk := time.NewTicker(5 * time.Second)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				metrics.ApprovalsPending.Set(float64(len(broker.Pending())))
			}
		}
	}()

	// HTTP API
	handler := api.NewHandler(api.Config{
		PipelineRepo: pipelineRepo,
		RunRepo:      runRepo,
		ScheduleRepo: scheduleRepo,
		Approvals:    broker,
		Canceler:     run,
		Publisher:    publisher,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Даём активным runs завершиться или отмениться
	run.Stop()
	logger.Info("conveyor-server stopped")
}

// agentLabels разбирает AGENT_LABELS вида "linux=4,deploy=1".
// Пустое значение — один агент "local" с четырьмя слотами.
func agentLabels() map[string]int {
	labels := map[string]int{"local": 4}

	raw := os.Getenv("AGENT_LABELS")
	if raw == "" {
		return labels
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := part
		slots := 1
		if i := strings.IndexByte(part, '='); i >= 0 {
			name = part[:i]
			if n, err := strconv.Atoi(part[i+1:]); err == nil && n > 0 {
				slots = n
			}
		}
		if name != "" {
			labels[name] = slots
		}
	}
	return labels
}

// runSchedulerLoop тикает планировщик раз в секунду.
// Тикает только лидер: процесс, удерживающий advisory lock в Postgres.
// Лок сессионный, при падении процесса освобождается сам.
func runSchedulerLoop(ctx context.Context, pool *pgxpool.Pool, sched *scheduler.Scheduler, logger *slog.Logger) {
	tk := time.NewTicker(1 * time.Second)
	defer tk.Stop()

	var hasLock bool
	defer func() {
		if hasLock {
			_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}

		if !hasLock {
			var ok bool
			if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
				logger.Warn("scheduler lock error", "error", err)
				continue
			}
			if ok {
				logger.Info("scheduler became leader")
			}
			hasLock = ok
		}

		if !hasLock {
			continue
		}

		if err := sched.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler tick failed", "error", err)
		}
	}
}
