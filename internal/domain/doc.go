// Package domain содержит модель данных Conveyor.
//
// Включает:
//   - pipeline.go — определение pipeline (дерево стадий и шагов)
//   - predicate.go — дерево условий выполнения стадии
//   - status.go   — статусная модель узлов и pipeline
//   - result.go   — результат выполнения run (аудит по узлам)
//   - run.go      — запись о запуске pipeline
//   - schedule.go — расписание автоматических запусков
//
// PipelineDefinition неизменяем: компилируется один раз в план
// и переиспользуется между запусками. Изменяется только
// результат конкретного run.
package domain
