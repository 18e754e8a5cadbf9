package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/domain"
)

// ApprovalStep ставит запуск на паузу до решения человека.
//
// Конфигурация:
//
//	{"message": "deploy to production?"}
//
// Outputs:
//
//	{"approved": true, "by": "lead", "comment": "..."}
//
// Ожидание ограничено контекстом: таймаут стадии и отмена запуска
// снимают паузу. Отклонение — неуспех шага.
type ApprovalStep struct {
	broker *approval.Broker
}

// NewApprovalStep создаёт исполнителя поверх брокера.
func NewApprovalStep(broker *approval.Broker) *ApprovalStep {
	return &ApprovalStep{broker: broker}
}

// Kind реализует Step.
func (s *ApprovalStep) Kind() string { return domain.KindApproval }

// Execute реализует Step.
func (s *ApprovalStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	message := ConfigString(req.Step.Config, "message")
	if message == "" {
		message = fmt.Sprintf("approve stage %s of run %s", req.Path, req.RunID)
	}

	request := approval.Request{
		ID:        uuid.New().String(),
		RunID:     req.RunID,
		StagePath: req.Path,
		Message:   message,
	}

	req.Log().Info("waiting for approval", "approval_id", request.ID, "message", message)

	decision, err := s.broker.Wait(ctx, request)
	if err != nil {
		return nil, err
	}

	return NewResponse(map[string]any{
		"approved": decision.Approved,
		"by":       decision.By,
		"comment":  decision.Comment,
	}), nil
}
