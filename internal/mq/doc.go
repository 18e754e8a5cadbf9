// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий запусков
//   - consumer.go   — потребление сообщений из очередей
//   - approvals.go  — консьюмер решений по approval-запросам
//   - sink.go       — notify.Sink поверх очереди уведомлений
//
// Типы сообщений:
//   - run.started        — запуск начал выполняться
//   - stage.finished     — стадия получила терминальный статус
//   - run.finished       — запуск завершён
//   - notification       — уведомление для внешних каналов
//   - approval.decision  — решение по запросу подтверждения
//
// Exchanges:
//   - conveyor.events         — события запусков
//   - conveyor.notifications  — уведомления
//   - conveyor.approvals      — решения по подтверждениям
//   - conveyor.dlq            — dead letter queue
package mq
