package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/mq"
)

// ListApprovals возвращает ожидающие запросы подтверждения.
// GET /api/v1/approvals
func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	if h.approvals == nil {
		List(w, []approval.Request{}, 0)
		return
	}

	pending := h.approvals.Pending()
	List(w, pending, len(pending))
}

// ResolveApproval доставляет решение по запросу подтверждения.
//
// Если запрос ждёт в локальном broker — решение доставляется напрямую.
// Иначе решение публикуется в RabbitMQ: его подберёт DecisionConsumer
// того инстанса, который держит запрос.
// POST /api/v1/approvals/{id}
func (h *Handler) ResolveApproval(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		BadRequest(w, "approval id is required")
		return
	}

	var req ResolveApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.By == "" {
		BadRequest(w, "by is required")
		return
	}

	decision := approval.Decision{
		Approved: req.Approved,
		By:       req.By,
		Comment:  req.Comment,
	}

	if h.approvals != nil {
		err := h.approvals.Resolve(id, decision)
		if err == nil {
			NoContent(w)
			return
		}
		if errors.Is(err, approval.ErrAlreadyResolved) {
			Conflict(w, "approval already resolved")
			return
		}
		if !errors.Is(err, approval.ErrUnknownRequest) {
			InternalError(w, h.logger, err)
			return
		}
		// Неизвестный запрос — пробуем через MQ
	}

	if h.publisher == nil {
		NotFound(w, "approval not found")
		return
	}

	err := h.publisher.PublishDecision(r.Context(), mq.DecisionPayload{
		ApprovalID: id,
		Approved:   req.Approved,
		By:         req.By,
		Comment:    req.Comment,
	})
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// 202: решение принято к доставке, но подтверждения ещё нет
	w.WriteHeader(http.StatusAccepted)
}
