package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Conveyor/internal/approval"
)

// NewDecisionConsumer создаёт консьюмера решений по подтверждениям.
//
// Решения приходят из внешних систем (чат-бот, веб-интерфейс) через
// очередь approvals.decisions и доставляются ожидающим стадиям.
// Решение по уже снятому запросу подтверждается и игнорируется:
// стадия могла уйти по таймауту раньше, повторная доставка бессмысленна.
func NewDecisionConsumer(conn *Connection, logger *slog.Logger, broker *approval.Broker) *Consumer {
	return NewConsumer(conn, logger, ConsumerConfig{
		Queue: string(QueueApprovalDecisions),
		Handler: func(ctx context.Context, d *Delivery) error {
			payload, err := ParsePayload[DecisionPayload](&d.Message)
			if err != nil {
				return fmt.Errorf("decode decision: %w", err)
			}

			err = broker.Resolve(payload.ApprovalID, approval.Decision{
				Approved:  payload.Approved,
				By:        payload.By,
				Comment:   payload.Comment,
				DecidedAt: time.Now().UTC(),
			})
			if errors.Is(err, approval.ErrUnknownRequest) {
				logger.Warn("decision for unknown approval",
					"approval_id", payload.ApprovalID,
					"by", payload.By,
				)
				return nil
			}
			return err
		},
	})
}
