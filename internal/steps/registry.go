package steps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/notify"
	"github.com/shaiso/Conveyor/internal/scm"
)

// Registry — реестр исполнителей по виду шага.
//
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Deps — зависимости встроенных исполнителей.
type Deps struct {
	// Sink — приёмник уведомлений для notify.
	Sink notify.Sink

	// Artifacts — хранилище артефактов для archive.
	Artifacts artifact.Store

	// Approvals — брокер подтверждений для approval.
	Approvals *approval.Broker

	// SCM — провайдер исходников для checkout.
	SCM scm.Provider
}

// DefaultRegistry создаёт реестр со всеми встроенными видами шагов.
func DefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()
	r.Register(NewShellStep())
	r.Register(NewNotifyStep(deps.Sink))
	r.Register(NewArchiveStep(deps.Artifacts))
	r.Register(NewApprovalStep(deps.Approvals))
	r.Register(NewCheckoutStep(deps.SCM))
	return r
}

// Register регистрирует исполнителя. Существующий вид перезаписывается.
func (r *Registry) Register(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[step.Kind()] = step
}

// Get возвращает исполнителя по виду шага.
func (r *Registry) Get(kind string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[kind]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, kind)
	}
	return step, nil
}

// Has проверяет, зарегистрирован ли вид шага.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[kind]
	return exists
}

// Kinds возвращает отсортированный список зарегистрированных видов.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.steps))
	for k := range r.steps {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
