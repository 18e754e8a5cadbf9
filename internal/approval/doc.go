// Package approval реализует ручное подтверждение стадий.
//
// Шаг approval ставит запуск на паузу: Broker регистрирует ожидание
// и блокируется до решения человека (HTTP API или очередь решений)
// либо до таймаута стадии. Отклонение и таймаут завершают стадию
// неуспехом.
package approval
