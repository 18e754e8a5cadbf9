// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, broker, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - pipeline_handler.go — обработчики для /pipelines
//   - run_handler.go      — обработчики для /runs
//   - approval_handler.go — обработчики для /approvals
//   - schedule_handler.go — обработчики для /schedules
//
// API предоставляет REST endpoints для управления pipelines, runs,
// approvals и schedules.
package api
