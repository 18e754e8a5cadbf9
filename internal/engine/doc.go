// Package engine выполняет скомпилированный план pipeline.
//
// # Обзор
//
// Engine обходит дерево плана и доводит каждый узел до терминального
// статуса. План неизменяем: движок пишет только в RunResult.
//
// # Семантика выполнения
//
// Последовательная стадия выполняет детей по порядку; FAILURE или
// ABORTED ребёнка останавливает очередь, оставшиеся сиблинги
// получают SKIPPED (если не задан continue_on_failure). UNSTABLE
// очередь не останавливает.
//
// Параллельная стадия запускает детей в горутинах, каждый со своей
// копией области переменных (Fork). Падение ребёнка не прерывает
// сиблингов: стадия ждёт всех и агрегирует худший статус.
//
// # Отмена и таймауты
//
// Отмена контекста запуска даёт ABORTED всем узлам, до которых
// дошла. Таймаут стадии ограничивает её поддерево; узел, упавший
// по таймауту, получает FAILURE с меткой TimedOut.
//
// # Post-действия
//
// После фиксации статуса стадии выполняются её post-действия в
// порядке объявления, внутри её области переменных. Ошибка
// post-действия не меняет терминальный статус; действие с
// escalate: true при ошибке деградирует итог запуска до UNSTABLE.
package engine
