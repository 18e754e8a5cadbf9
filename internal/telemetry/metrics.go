package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus метрики движка pipeline.
type Metrics struct {
	// RunsTotal — завершённые запуски по статусу.
	RunsTotal *prometheus.CounterVec

	// ActiveRuns — запуски, выполняющиеся прямо сейчас.
	ActiveRuns prometheus.Gauge

	// StageDuration — длительность стадий по pipeline и статусу.
	StageDuration *prometheus.HistogramVec

	// StepRetries — повторы шагов по pipeline.
	StepRetries *prometheus.CounterVec

	// ApprovalsPending — запросы подтверждения в ожидании решения.
	ApprovalsPending prometheus.Gauge
}

// NewMetrics создаёт и регистрирует метрики в reg.
// Nil reg регистрирует в prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conveyor",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by terminal status.",
		}, []string{"pipeline", "status"}),

		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "conveyor",
			Name:      "active_runs",
			Help:      "Pipeline runs currently executing.",
		}),

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conveyor",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of finished stages.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"pipeline", "status"}),

		StepRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conveyor",
			Name:      "step_retries_total",
			Help:      "Step attempts beyond the first, by pipeline.",
		}, []string{"pipeline"}),

		ApprovalsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "conveyor",
			Name:      "approvals_pending",
			Help:      "Approval requests waiting for a decision.",
		}),
	}

	reg.MustRegister(m.RunsTotal, m.ActiveRuns, m.StageDuration, m.StepRetries, m.ApprovalsPending)
	return m
}

// NopMetrics создаёт метрики без регистрации, для тестов.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
