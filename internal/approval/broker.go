package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Ошибки подтверждений.
var (
	// ErrUnknownRequest — запрос подтверждения не найден.
	ErrUnknownRequest = errors.New("approval request not found")

	// ErrAlreadyResolved — решение по запросу уже принято.
	ErrAlreadyResolved = errors.New("approval already resolved")

	// ErrRejected — подтверждение отклонено.
	ErrRejected = errors.New("approval rejected")
)

// Decision — решение по запросу подтверждения.
type Decision struct {
	// Approved — true, если запуск разрешено продолжить.
	Approved bool `json:"approved"`

	// By — кто принял решение.
	By string `json:"by"`

	// Comment — необязательный комментарий.
	Comment string `json:"comment,omitempty"`

	// DecidedAt — момент решения.
	DecidedAt time.Time `json:"decided_at"`
}

// Request — ожидающий запрос подтверждения.
type Request struct {
	// ID — идентификатор запроса.
	ID string `json:"id"`

	// RunID — запуск, который ждёт решения.
	RunID string `json:"run_id"`

	// StagePath — путь стадии с шагом approval.
	StagePath string `json:"stage_path"`

	// Message — текст запроса для человека.
	Message string `json:"message"`

	// CreatedAt — момент постановки на паузу.
	CreatedAt time.Time `json:"created_at"`
}

// Broker сопоставляет ожидающие запросы и решения.
//
// Потокобезопасен: Wait блокируется в горутине стадии, Resolve
// приходит из HTTP-обработчика или консьюмера очереди.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*waiter
}

// waiter — одно ожидание решения.
type waiter struct {
	req  Request
	done chan Decision
}

// NewBroker создаёт брокер без ожидающих запросов.
func NewBroker() *Broker {
	return &Broker{pending: make(map[string]*waiter)}
}

// Wait регистрирует запрос и блокируется до решения или отмены ctx.
//
// Таймаут стадии приходит через ctx: отмена снимает ожидание и
// удаляет запрос, решение по нему больше принять нельзя.
func (b *Broker) Wait(ctx context.Context, req Request) (Decision, error) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	w := &waiter{req: req, done: make(chan Decision, 1)}

	b.mu.Lock()
	if _, exists := b.pending[req.ID]; exists {
		b.mu.Unlock()
		return Decision{}, fmt.Errorf("%w: duplicate id %s", ErrAlreadyResolved, req.ID)
	}
	b.pending[req.ID] = w
	b.mu.Unlock()

	select {
	case d := <-w.done:
		if !d.Approved {
			return d, fmt.Errorf("%w: by %s", ErrRejected, d.By)
		}
		return d, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
		return Decision{}, ctx.Err()
	}
}

// Resolve доставляет решение ожидающему запросу.
func (b *Broker) Resolve(id string, d Decision) error {
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now().UTC()
	}

	b.mu.Lock()
	w, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}

	w.done <- d
	return nil
}

// Pending возвращает снимок ожидающих запросов.
func (b *Broker) Pending() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Request, 0, len(b.pending))
	for _, w := range b.pending {
		out = append(out, w.req)
	}
	return out
}
