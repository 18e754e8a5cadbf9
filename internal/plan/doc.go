// Package plan компилирует PipelineDefinition в исполняемый план.
//
// Компиляция выполняется один раз; план неизменяем и переиспользуется
// между запусками. Builder валидирует определение целиком (имена
// сиблингов, виды шагов, опции, синтаксис условий), разворачивает
// генераторы стадий и аннотирует каждый узел эффективным агентом
// и политиками retry/timeout. План не возвращается частично:
// любая ошибка валидации — это CompileError без плана.
package plan
