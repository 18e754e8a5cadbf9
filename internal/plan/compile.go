package plan

import (
	"fmt"
	"time"

	"github.com/shaiso/Conveyor/internal/condition"
	"github.com/shaiso/Conveyor/internal/domain"
)

// Generator — контракт динамической генерации стадий.
//
// Вызывается ровно один раз при компиляции, до заморозки плана:
// инвариант "compile once, run many times" сохраняется.
type Generator interface {
	Produce(params map[string]string) ([]domain.StageDef, error)
}

// GeneratorFunc — адаптер функции к интерфейсу Generator.
type GeneratorFunc func(params map[string]string) ([]domain.StageDef, error)

// Produce реализует Generator.
func (f GeneratorFunc) Produce(params map[string]string) ([]domain.StageDef, error) {
	return f(params)
}

// Options — настройки компиляции.
type Options struct {
	// Kinds — допустимые виды шагов. Nil — встроенные виды.
	Kinds []string

	// Generators — зарегистрированные генераторы стадий.
	Generators map[string]Generator

	// Params — параметры для генераторов (контекст компиляции).
	Params map[string]string
}

// compiler — состояние одной компиляции.
type compiler struct {
	opts  Options
	kinds map[string]bool
}

// Compile компилирует определение в план.
//
// Валидирует определение целиком и никогда не возвращает частичный
// план: либо (*Plan, nil), либо (nil, *CompileError). Компиляция
// детерминирована — одинаковый вход даёт структурно равные планы.
func Compile(def *domain.PipelineDefinition, opts Options) (*Plan, error) {
	if def == nil || len(def.Stages) == 0 {
		return nil, newError(KindEmptyPipeline, "", "pipeline has no stages", ErrEmptyPipeline)
	}

	kinds := opts.Kinds
	if kinds == nil {
		kinds = domain.BuiltinKinds()
	}
	known := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		known[k] = true
	}

	c := &compiler{opts: opts, kinds: known}

	if err := c.checkOptions("", def.Options); err != nil {
		return nil, err
	}
	if err := c.checkParameters(def.Parameters); err != nil {
		return nil, err
	}
	if err := c.checkPost("", def.Post); err != nil {
		return nil, err
	}

	root := &Node{
		Name:              def.Name,
		Path:              "",
		Kind:              NodeStage,
		Mode:              domain.ModeSequential,
		Agent:             def.Agent,
		Env:               def.Env,
		Post:              def.Post,
		Retry:             def.Options.Retry,
		Timeout:           time.Duration(def.Options.TimeoutSec) * time.Second,
		ContinueOnFailure: def.Options.ContinueOnFailure,
	}

	children, err := c.compileStages(root, def.Stages)
	if err != nil {
		return nil, err
	}
	root.Children = children

	return &Plan{Definition: def, Root: root}, nil
}

// compileStages компилирует список сиблингов, проверяя уникальность имён.
func (c *compiler) compileStages(parent *Node, stages []domain.StageDef) ([]*Node, error) {
	seen := make(map[string]bool, len(stages))
	nodes := make([]*Node, 0, len(stages))

	for i := range stages {
		stage := &stages[i]

		if stage.Name == "" {
			return nil, newError(KindInvalidStage, parent.Path,
				fmt.Sprintf("stage %d has empty name", i), ErrInvalidStage)
		}
		if seen[stage.Name] {
			return nil, newError(KindDuplicateStageName, joinPath(parent.Path, stage.Name),
				fmt.Sprintf("duplicate stage name: %s", stage.Name), ErrDuplicateStageName)
		}
		seen[stage.Name] = true

		node, err := c.compileStage(parent, stage)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// compileStage компилирует одну стадию в узел.
func (c *compiler) compileStage(parent *Node, stage *domain.StageDef) (*Node, error) {
	path := joinPath(parent.Path, stage.Name)

	if err := c.checkOptions(path, stage.Options); err != nil {
		return nil, err
	}
	if err := condition.Check(stage.When); err != nil {
		return nil, newError(KindInvalidCondition, path, err.Error(), ErrInvalidCondition)
	}
	if err := c.checkPost(path, stage.Post); err != nil {
		return nil, err
	}

	switch stage.EffectiveMode() {
	case domain.ModeSequential, domain.ModeParallel:
	default:
		return nil, newError(KindInvalidOption, path,
			fmt.Sprintf("unknown execution mode: %s", stage.Mode), ErrInvalidOption)
	}

	node := &Node{
		Name:              stage.Name,
		Path:              path,
		Kind:              NodeStage,
		Mode:              stage.EffectiveMode(),
		Agent:             effectiveAgent(parent, stage),
		Env:               stage.Env,
		When:              stage.When,
		Post:              stage.Post,
		Retry:             effectiveRetry(parent, stage),
		Timeout:           time.Duration(stage.Options.TimeoutSec) * time.Second,
		ContinueOnFailure: stage.Options.ContinueOnFailure,
	}

	// Разворачиваем генератор до проверки структуры:
	// сгенерированные стадии проходят ту же валидацию.
	childStages := stage.Stages
	if stage.Generator != "" {
		if len(stage.Stages) > 0 || len(stage.Steps) > 0 {
			return nil, newError(KindInvalidStage, path,
				"generator stage must not declare stages or steps", ErrInvalidStage)
		}
		generated, err := c.expandGenerator(path, stage.Generator)
		if err != nil {
			return nil, err
		}
		childStages = generated
	}

	hasStages := len(childStages) > 0
	hasSteps := len(stage.Steps) > 0

	switch {
	case hasStages && hasSteps:
		return nil, newError(KindInvalidStage, path,
			"stage declares both nested stages and steps", ErrInvalidStage)

	case hasStages:
		children, err := c.compileStages(node, childStages)
		if err != nil {
			return nil, err
		}
		node.Children = children

	case hasSteps:
		children, err := c.compileSteps(node, stage.Steps)
		if err != nil {
			return nil, err
		}
		node.Children = children

	default:
		return nil, newError(KindInvalidStage, path,
			"stage has neither stages nor steps", ErrInvalidStage)
	}

	return node, nil
}

// compileSteps компилирует листовые шаги стадии.
func (c *compiler) compileSteps(parent *Node, steps []domain.StepDef) ([]*Node, error) {
	nodes := make([]*Node, 0, len(steps))

	for i := range steps {
		step := &steps[i]

		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		path := joinPath(parent.Path, name)

		if err := c.checkStep(path, step); err != nil {
			return nil, err
		}

		nodes = append(nodes, &Node{
			Name:    name,
			Path:    path,
			Kind:    NodeStep,
			Agent:   parent.Agent,
			Retry:   parent.Retry,
			Timeout: 0, // таймауты задаются на стадиях
			Step:    step,
		})
	}

	return nodes, nil
}

// checkStep проверяет вид шага. Неизвестный вид — ошибка компиляции,
// а не рантайма: исполнитель никогда не видит неподдерживаемое действие.
func (c *compiler) checkStep(path string, step *domain.StepDef) error {
	if step.Kind == "" {
		return newError(KindUnknownDirective, path, "step has empty kind", ErrUnknownKind)
	}
	if !c.kinds[step.Kind] {
		return newError(KindUnknownDirective, path,
			fmt.Sprintf("unsupported step kind: %s", step.Kind), ErrUnknownKind)
	}
	return nil
}

// checkOptions проверяет числовые опции.
func (c *compiler) checkOptions(path string, opts domain.Options) error {
	if opts.TimeoutSec < 0 {
		return newError(KindInvalidOption, path,
			fmt.Sprintf("negative timeout: %d", opts.TimeoutSec), ErrInvalidOption)
	}
	if opts.Retry < 0 {
		return newError(KindInvalidOption, path,
			fmt.Sprintf("negative retry count: %d", opts.Retry), ErrInvalidOption)
	}
	return nil
}

// checkParameters проверяет объявления параметров.
func (c *compiler) checkParameters(params []domain.ParameterDef) error {
	seen := make(map[string]bool, len(params))
	for i := range params {
		p := &params[i]
		if p.Name == "" {
			return newError(KindInvalidOption, "", "parameter has empty name", ErrInvalidOption)
		}
		if seen[p.Name] {
			return newError(KindInvalidOption, "",
				fmt.Sprintf("duplicate parameter: %s", p.Name), ErrInvalidOption)
		}
		seen[p.Name] = true

		if p.Type == "choice" && p.Default != "" && !contains(p.Choices, p.Default) {
			return newError(KindInvalidOption, "",
				fmt.Sprintf("parameter %s: default %q is not among choices", p.Name, p.Default),
				ErrInvalidOption)
		}
	}
	return nil
}

// checkPost проверяет post-действия области.
func (c *compiler) checkPost(path string, post []domain.PostActionDef) error {
	for i := range post {
		pa := &post[i]
		if !domain.ValidTrigger(pa.Trigger) {
			return newError(KindUnknownDirective, path,
				fmt.Sprintf("unknown post trigger: %s", pa.Trigger), ErrUnknownKind)
		}
		if err := c.checkStep(joinPath(path, fmt.Sprintf("post-%d", i+1)), &pa.Step); err != nil {
			return err
		}
	}
	return nil
}

// expandGenerator вызывает зарегистрированный генератор стадий.
func (c *compiler) expandGenerator(path, name string) ([]domain.StageDef, error) {
	gen, ok := c.opts.Generators[name]
	if !ok {
		return nil, newError(KindUnknownGenerator, path,
			fmt.Sprintf("generator not registered: %s", name), ErrUnknownGenerator)
	}

	stages, err := gen.Produce(c.opts.Params)
	if err != nil {
		return nil, newError(KindUnknownGenerator, path,
			fmt.Sprintf("generator %s: %v", name, err), ErrGeneratorFailed)
	}
	return stages, nil
}

// effectiveAgent возвращает агента стадии: локальное переопределение
// либо ближайший предок (в parent уже вычислено его эффективное значение).
func effectiveAgent(parent *Node, stage *domain.StageDef) string {
	if stage.Agent != "" {
		return stage.Agent
	}
	return parent.Agent
}

// effectiveRetry возвращает retry ближайшей объявившей стадии.
func effectiveRetry(parent *Node, stage *domain.StageDef) int {
	if stage.Options.Retry > 0 {
		return stage.Options.Retry
	}
	return parent.Retry
}

// joinPath соединяет путь родителя с именем узла.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// contains проверяет вхождение строки в слайс.
func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
