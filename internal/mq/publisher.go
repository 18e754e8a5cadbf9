package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conveyor/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunPending    MessageType = "run.pending"
	MessageTypeRunStarted    MessageType = "run.started"
	MessageTypeStageFinished MessageType = "stage.finished"
	MessageTypeRunFinished   MessageType = "run.finished"
	MessageTypeNotification  MessageType = "notification"
	MessageTypeDecision      MessageType = "approval.decision"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunPendingPayload — событие о новом run, ожидающем выполнения.
type RunPendingPayload struct {
	RunID string `json:"run_id"`
}

// RunStartedPayload — событие начала запуска.
type RunStartedPayload struct {
	RunID    string `json:"run_id"`
	Pipeline string `json:"pipeline"`
}

// StageFinishedPayload — событие завершения стадии.
type StageFinishedPayload struct {
	RunID      string        `json:"run_id"`
	StagePath  string        `json:"stage_path"`
	Status     domain.Status `json:"status"`
	DurationMS int64         `json:"duration_ms"`
}

// RunFinishedPayload — событие завершения запуска.
type RunFinishedPayload struct {
	RunID    string        `json:"run_id"`
	Pipeline string        `json:"pipeline"`
	Status   domain.Status `json:"status"`
}

// DecisionPayload — решение по запросу подтверждения.
type DecisionPayload struct {
	ApprovalID string `json:"approval_id"`
	Approved   bool   `json:"approved"`
	By         string `json:"by"`
	Comment    string `json:"comment,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // событие переживёт рестарт брокера
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishRunPending публикует событие о созданном run.
// Runner может подхватить его быстрее, чем через polling.
func (p *Publisher) PublishRunPending(ctx context.Context, runID uuid.UUID) error {
	return p.publishEvent(ctx, RoutingKeyRunPending, MessageTypeRunPending,
		RunPendingPayload{RunID: runID.String()})
}

// PublishRunStarted публикует событие о старте запуска.
func (p *Publisher) PublishRunStarted(ctx context.Context, runID, pipeline string) error {
	return p.publishEvent(ctx, RoutingKeyRunStarted, MessageTypeRunStarted,
		RunStartedPayload{RunID: runID, Pipeline: pipeline})
}

// PublishStageFinished публикует терминальный статус стадии.
func (p *Publisher) PublishStageFinished(ctx context.Context, payload StageFinishedPayload) error {
	return p.publishEvent(ctx, RoutingKeyStageFinished, MessageTypeStageFinished, payload)
}

// PublishRunFinished публикует событие о завершении запуска.
func (p *Publisher) PublishRunFinished(ctx context.Context, payload RunFinishedPayload) error {
	return p.publishEvent(ctx, RoutingKeyRunFinished, MessageTypeRunFinished, payload)
}

// PublishDecision публикует решение по запросу подтверждения.
// Потребитель: DecisionConsumer на стороне движка.
func (p *Publisher) PublishDecision(ctx context.Context, payload DecisionPayload) error {
	msg := newMessage(MessageTypeDecision, payload)
	return p.Publish(ctx, ExchangeApprovals, RoutingKeyDecision, msg)
}

// publishEvent публикует событие запуска в exchange событий.
func (p *Publisher) publishEvent(ctx context.Context, key RoutingKey, msgType MessageType, payload any) error {
	return p.Publish(ctx, ExchangeEvents, key, newMessage(msgType, payload))
}

// newMessage создаёт сообщение с идентификатором и меткой времени.
func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
