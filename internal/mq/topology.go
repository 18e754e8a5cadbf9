package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents        Exchange = "conveyor.events"
	ExchangeNotifications Exchange = "conveyor.notifications"
	ExchangeApprovals     Exchange = "conveyor.approvals"
	ExchangeDLQ           Exchange = "conveyor.dlq"
)

// Queues — имена очередей.
const (
	QueueRunsPending        Queue = "runs.pending"
	QueueEventsRuns         Queue = "events.runs"
	QueueNotificationOutbox Queue = "notifications.outbox"
	QueueApprovalDecisions  Queue = "approvals.decisions"
	QueueDLQEvents          Queue = "dlq.events"
)

// Routing keys.
const (
	RoutingKeyRunPending    RoutingKey = "run.pending"
	RoutingKeyRunStarted    RoutingKey = "run.started"
	RoutingKeyStageFinished RoutingKey = "stage.finished"
	RoutingKeyRunFinished   RoutingKey = "run.finished"
	RoutingKeyNotification  RoutingKey = "notification"
	RoutingKeyDecision      RoutingKey = "decision"
	RoutingKeyDLQEvents     RoutingKey = "events"
)

// SetupTopology объявляет обменники, очереди и привязки.
//
// Идемпотентна: повторный вызов на живом брокере безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeEvents, "direct"},
		{ExchangeNotifications, "direct"},
		{ExchangeApprovals, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name),
			ex.kind,
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}
	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQEvents),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// runs.pending — рабочая очередь runner, с DLQ
		{QueueRunsPending, dlqArgs},

		// events.runs — с DLQ: события нельзя терять молча
		{QueueEventsRuns, dlqArgs},

		// notifications.outbox — best-effort, без DLQ
		{QueueNotificationOutbox, nil},

		// approvals.decisions — решение должно дойти до брокера
		{QueueApprovalDecisions, dlqArgs},

		// dlq.events — сама DLQ очередь
		{QueueDLQEvents, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name),
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			q.args,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueRunsPending, RoutingKeyRunPending, ExchangeEvents},
		{QueueEventsRuns, RoutingKeyRunStarted, ExchangeEvents},
		{QueueEventsRuns, RoutingKeyStageFinished, ExchangeEvents},
		{QueueEventsRuns, RoutingKeyRunFinished, ExchangeEvents},
		{QueueNotificationOutbox, RoutingKeyNotification, ExchangeNotifications},
		{QueueApprovalDecisions, RoutingKeyDecision, ExchangeApprovals},
		{QueueDLQEvents, RoutingKeyDLQEvents, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),
			string(b.routingKey),
			string(b.exchange),
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
