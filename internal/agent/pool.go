package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Ошибки пула агентов.
var (
	// ErrUnknownLabel — метка агента не зарегистрирована в пуле.
	ErrUnknownLabel = errors.New("unknown agent label")

	// ErrPoolClosed — пул закрыт, новые захваты невозможны.
	ErrPoolClosed = errors.New("agent pool closed")
)

// Lease — захваченный слот агента.
//
// Release обязателен и идемпотентен: повторный вызов безопасен.
type Lease interface {
	// Label возвращает метку агента, на котором захвачен слот.
	Label() string

	// Release освобождает слот.
	Release()
}

// Pool — контракт пула агентов.
//
// Acquire блокируется до появления свободного слота либо отмены
// контекста. Пустая метка означает "любой агент" и разрешается
// реализацией.
type Pool interface {
	Acquire(ctx context.Context, label string) (Lease, error)
}

// LocalPool — пул агентов в рамках одного процесса.
//
// Каждая метка получает фиксированное число слотов. Ожидание
// реализовано через буферизованный канал-семафор, поэтому отмена
// контекста снимает ожидающего без утечки горутины.
type LocalPool struct {
	mu     sync.RWMutex
	slots  map[string]chan struct{}
	closed bool
}

// Config — настройки локального пула.
type Config struct {
	// Labels — метки агентов и число слотов на каждую.
	// Метка с нулём или отрицательным значением получает один слот.
	Labels map[string]int
}

// NewLocalPool создаёт пул с указанными метками.
func NewLocalPool(cfg Config) *LocalPool {
	p := &LocalPool{slots: make(map[string]chan struct{}, len(cfg.Labels))}
	for label, n := range cfg.Labels {
		if n <= 0 {
			n = 1
		}
		p.slots[label] = make(chan struct{}, n)
	}
	return p
}

// Acquire захватывает слот на агенте с меткой label.
//
// Пустая метка разрешается в произвольный зарегистрированный агент;
// для воспроизводимости объявляйте агента явно.
func (p *LocalPool) Acquire(ctx context.Context, label string) (Lease, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	sem, ok := p.resolve(label)
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}

	select {
	case sem <- struct{}{}:
		return &lease{label: label, sem: sem}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve находит семафор метки. Вызывается под блокировкой.
func (p *LocalPool) resolve(label string) (chan struct{}, bool) {
	if label == "" {
		for _, sem := range p.slots {
			return sem, true
		}
		return nil, false
	}
	sem, ok := p.slots[label]
	return sem, ok
}

// Labels возвращает зарегистрированные метки и их ёмкость.
func (p *LocalPool) Labels() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]int, len(p.slots))
	for label, sem := range p.slots {
		out[label] = cap(sem)
	}
	return out
}

// Close закрывает пул. Уже захваченные слоты остаются валидными.
func (p *LocalPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// lease — слот локального пула.
type lease struct {
	label string
	sem   chan struct{}
	once  sync.Once
}

// Label реализует Lease.
func (l *lease) Label() string { return l.label }

// Release реализует Lease.
func (l *lease) Release() {
	l.once.Do(func() { <-l.sem })
}
