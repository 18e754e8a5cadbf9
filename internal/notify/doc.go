// Package notify доставляет уведомления о ходе pipeline.
//
// Sink — приёмник уведомлений. SlogSink пишет в структурированный
// лог, Multi раскладывает одно уведомление по нескольким приёмникам.
// Приёмник поверх очереди сообщений живёт в пакете mq.
package notify
