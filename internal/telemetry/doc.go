// Package telemetry обеспечивает наблюдаемость движка.
//
// Включает:
//   - logging.go — structured logging через slog (LOG_LEVEL, LOG_FORMAT)
//   - metrics.go — Prometheus метрики выполнения: runs по статусам,
//     активные runs, гистограмма длительности стадий, ретраи шагов,
//     ожидающие approvals
//
// Сервер использует единый формат логирования и экспортирует
// метрики на /metrics endpoint.
package telemetry
