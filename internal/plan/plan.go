package plan

import (
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Plan — скомпилированный исполняемый план pipeline.
//
// Неизменяем после компиляции: движок читает план, но всё
// изменяемое состояние живёт в контексте конкретного run.
type Plan struct {
	// Definition — исходное определение (для справки и аудита).
	Definition *domain.PipelineDefinition

	// Root — корневой узел. Его дети — стадии верхнего уровня,
	// post-действия — действия уровня pipeline.
	Root *Node
}

// NodeKind — вид узла плана.
type NodeKind string

const (
	// NodeStage — стадия (содержит детей).
	NodeStage NodeKind = "stage"

	// NodeStep — листовой шаг.
	NodeStep NodeKind = "step"
)

// Node — узел исполняемого дерева.
//
// Узел аннотирован эффективными значениями, вычисленными при
// компиляции: агент (переопределение стадии либо ближайший предок),
// retry (ближайшая объявившая стадия), собственный таймаут.
type Node struct {
	// Name — имя узла.
	Name string

	// Path — путь узла в дереве ("build/unit-tests").
	Path string

	// Kind — стадия или шаг.
	Kind NodeKind

	// Mode — режим выполнения детей (для стадий).
	Mode domain.ExecMode

	// Agent — эффективная метка агента. Рекомендательные метаданные
	// для исполнителя шага, на порядок выполнения не влияют.
	Agent string

	// Env — локальные привязки стадии (кадр, кладущийся при входе).
	Env map[string]string

	// When — условие выполнения (nil — всегда).
	When *domain.Predicate

	// Post — post-действия области узла.
	Post []domain.PostActionDef

	// Retry — эффективное число повторов для шагов внутри узла.
	Retry int

	// Timeout — собственный таймаут стадии (0 — нет).
	// Таймауты стадий независимы: срабатывание таймаута ребёнка
	// не отменяет параллельных сиблингов.
	Timeout time.Duration

	// ContinueOnFailure — не останавливать последовательных
	// сиблингов после падения ребёнка.
	ContinueOnFailure bool

	// Step — определение шага (только для NodeStep).
	Step *domain.StepDef

	// Children — дочерние узлы (только для NodeStage).
	Children []*Node
}

// IsLeaf возвращает true для листового шага.
func (n *Node) IsLeaf() bool {
	return n.Kind == NodeStep
}

// Walk обходит поддерево в документном порядке, вызывая fn
// для каждого узла. Обход прерывается, когда fn возвращает false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// StepCount возвращает количество листовых шагов в плане.
func (p *Plan) StepCount() int {
	count := 0
	p.Root.Walk(func(n *Node) bool {
		if n.IsLeaf() {
			count++
		}
		return true
	})
	return count
}

// Find возвращает узел по пути (nil, если не найден).
func (p *Plan) Find(path string) *Node {
	var found *Node
	p.Root.Walk(func(n *Node) bool {
		if n.Path == path {
			found = n
			return false
		}
		return true
	})
	return found
}
