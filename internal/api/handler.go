package api

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
)

// RunCanceler отменяет выполняющийся run.
// Реализуется runner.Runner.
type RunCanceler interface {
	Cancel(runID uuid.UUID) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	pipelineRepo *repo.PipelineRepo
	runRepo      *repo.RunRepo
	scheduleRepo *repo.ScheduleRepo
	approvals    *approval.Broker
	canceler     RunCanceler
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	PipelineRepo *repo.PipelineRepo
	RunRepo      *repo.RunRepo
	ScheduleRepo *repo.ScheduleRepo
	Approvals    *approval.Broker
	Canceler     RunCanceler
	Publisher    *mq.Publisher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		pipelineRepo: cfg.PipelineRepo,
		runRepo:      cfg.RunRepo,
		scheduleRepo: cfg.ScheduleRepo,
		approvals:    cfg.Approvals,
		canceler:     cfg.Canceler,
		publisher:    cfg.Publisher,
		logger:       logger,
	}
}
