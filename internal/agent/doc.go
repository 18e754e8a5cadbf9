// Package agent управляет пулом исполнителей (агентов) для стадий.
//
// Pool — абстракция получения слота на агенте с нужной меткой.
// Стадия, объявившая агента, захватывает слот перед выполнением
// и освобождает его после, включая пути отмены и таймаута.
//
// LocalPool — встроенная реализация на семафорах: фиксированное
// число слотов на метку, честное ожидание через контекст.
package agent
