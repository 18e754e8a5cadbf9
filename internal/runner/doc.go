// Package runner связывает персистентный слой с движком выполнения.
//
// Runner забирает pending runs (event-driven через RabbitMQ плюс
// polling fallback), компилирует нужную версию pipeline в Plan
// и выполняет её движком в отдельной горутине. Терминальный статус
// и полный RunResult сохраняются в БД.
//
// Структура:
//   - runner.go — основная логика (Start, poll, launch, execute, Cancel)
//   - errors.go — sentinel-ошибки
//
// Использование:
//
//	r := runner.New(runner.Config{
//	    RunRepo:      runRepo,
//	    PipelineRepo: pipelineRepo,
//	    Engine:       eng,
//	    Conn:         conn,  // опционально, для run.pending событий
//	    Logger:       logger,
//	})
//
//	if err := r.Start(ctx); err != nil { ... }
//	defer r.Stop()
package runner
