package plan

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func simpleDef() *domain.PipelineDefinition {
	return &domain.PipelineDefinition{
		Name:  "build-and-test",
		Agent: "linux",
		Env:   map[string]string{"CI": "true"},
		Stages: []domain.StageDef{
			{
				Name:  "build",
				Steps: []domain.StepDef{{Name: "compile", Kind: domain.KindShell, Config: map[string]any{"command": "make"}}},
			},
			{
				Name: "test",
				Mode: domain.ModeParallel,
				Stages: []domain.StageDef{
					{Name: "unit", Steps: []domain.StepDef{{Kind: domain.KindShell, Config: map[string]any{"command": "make test"}}}},
					{Name: "integration", Agent: "docker", Steps: []domain.StepDef{{Kind: domain.KindShell, Config: map[string]any{"command": "make itest"}}}},
				},
			},
		},
	}
}

func TestCompile_Simple(t *testing.T) {
	p, err := Compile(simpleDef(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Root.Children) != 2 {
		t.Fatalf("expected 2 top-level stages, got %d", len(p.Root.Children))
	}

	build := p.Find("build")
	if build == nil || build.Kind != NodeStage {
		t.Fatal("stage build not found")
	}
	if build.Mode != domain.ModeSequential {
		t.Errorf("default mode should be sequential, got %s", build.Mode)
	}

	compile := p.Find("build/compile")
	if compile == nil || !compile.IsLeaf() {
		t.Fatal("leaf build/compile not found")
	}

	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}
}

func TestCompile_AgentResolution(t *testing.T) {
	p, err := Compile(simpleDef(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Стадия без переопределения наследует агента pipeline
	if got := p.Find("test/unit").Agent; got != "linux" {
		t.Errorf("unit should inherit pipeline agent, got %q", got)
	}
	// Локальное переопределение сильнее
	if got := p.Find("test/integration").Agent; got != "docker" {
		t.Errorf("integration should use its own agent, got %q", got)
	}
	// Шаг получает агента своей стадии
	if got := p.Find("test/integration/step-1").Agent; got != "docker" {
		t.Errorf("leaf should carry the stage agent, got %q", got)
	}
}

func TestCompile_RetryInheritance(t *testing.T) {
	def := simpleDef()
	def.Options.Retry = 1
	def.Stages[0].Options.Retry = 3

	p, err := Compile(def, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ближайшая объявившая стадия
	if got := p.Find("build/compile").Retry; got != 3 {
		t.Errorf("compile step should have retry 3, got %d", got)
	}
	// Без локального retry действует значение pipeline
	if got := p.Find("test/unit/step-1").Retry; got != 1 {
		t.Errorf("unit step should inherit pipeline retry 1, got %d", got)
	}
}

func TestCompile_DuplicateSiblingNames(t *testing.T) {
	def := simpleDef()
	def.Stages[1].Name = "build"

	_, err := Compile(def, Options{})
	if !errors.Is(err, ErrDuplicateStageName) {
		t.Fatalf("expected ErrDuplicateStageName, got %v", err)
	}

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatal("error should be a *CompileError")
	}
	if ce.Kind != KindDuplicateStageName {
		t.Errorf("kind: got %s", ce.Kind)
	}
}

func TestCompile_DuplicateNamesInDifferentScopesAllowed(t *testing.T) {
	// Имена уникальны среди сиблингов, но не глобально
	def := &domain.PipelineDefinition{
		Name: "p",
		Stages: []domain.StageDef{
			{Name: "a", Stages: []domain.StageDef{
				{Name: "prepare", Steps: []domain.StepDef{{Kind: domain.KindShell}}},
			}},
			{Name: "b", Stages: []domain.StageDef{
				{Name: "prepare", Steps: []domain.StepDef{{Kind: domain.KindShell}}},
			}},
		},
	}

	if _, err := Compile(def, Options{}); err != nil {
		t.Fatalf("same name in different scopes must be allowed: %v", err)
	}
}

func TestCompile_UnknownStepKind(t *testing.T) {
	def := simpleDef()
	def.Stages[0].Steps[0].Kind = "teleport"

	_, err := Compile(def, Options{})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	var ce *CompileError
	errors.As(err, &ce)
	if ce.Kind != KindUnknownDirective {
		t.Errorf("kind: got %s", ce.Kind)
	}
	if ce.Path != "build/compile" {
		t.Errorf("path: got %s", ce.Path)
	}
}

func TestCompile_InvalidOptions(t *testing.T) {
	def := simpleDef()
	def.Stages[0].Options.TimeoutSec = -5

	if _, err := Compile(def, Options{}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("negative timeout: expected ErrInvalidOption, got %v", err)
	}

	def = simpleDef()
	def.Stages[0].Options.Retry = -1

	if _, err := Compile(def, Options{}); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("negative retry: expected ErrInvalidOption, got %v", err)
	}
}

func TestCompile_BadCondition(t *testing.T) {
	def := simpleDef()
	def.Stages[0].When = &domain.Predicate{Expression: "a == =="}

	if _, err := Compile(def, Options{}); !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("expected ErrInvalidCondition, got %v", err)
	}
}

func TestCompile_EmptyPipeline(t *testing.T) {
	if _, err := Compile(&domain.PipelineDefinition{Name: "p"}, Options{}); !errors.Is(err, ErrEmptyPipeline) {
		t.Errorf("expected ErrEmptyPipeline, got %v", err)
	}
	if _, err := Compile(nil, Options{}); !errors.Is(err, ErrEmptyPipeline) {
		t.Errorf("nil definition: expected ErrEmptyPipeline, got %v", err)
	}
}

func TestCompile_PostValidation(t *testing.T) {
	def := simpleDef()
	def.Post = []domain.PostActionDef{
		{Trigger: "sometimes", Step: domain.StepDef{Kind: domain.KindNotify}},
	}

	if _, err := Compile(def, Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown trigger: expected error, got %v", err)
	}

	def = simpleDef()
	def.Stages[0].Post = []domain.PostActionDef{
		{Trigger: domain.TriggerAlways, Step: domain.StepDef{Kind: "bogus"}},
	}

	if _, err := Compile(def, Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("bad post step kind: expected error, got %v", err)
	}
}

func TestCompile_GeneratorExpansion(t *testing.T) {
	def := &domain.PipelineDefinition{
		Name: "matrix",
		Stages: []domain.StageDef{
			{Name: "targets", Mode: domain.ModeParallel, Generator: "per-target"},
		},
	}

	gen := GeneratorFunc(func(params map[string]string) ([]domain.StageDef, error) {
		var stages []domain.StageDef
		for _, target := range []string{"amd64", "arm64"} {
			stages = append(stages, domain.StageDef{
				Name: target,
				Steps: []domain.StepDef{
					{Kind: domain.KindShell, Config: map[string]any{"command": "make " + target + " FLAVOR=" + params["flavor"]}},
				},
			})
		}
		return stages, nil
	})

	p, err := Compile(def, Options{
		Generators: map[string]Generator{"per-target": gen},
		Params:     map[string]string{"flavor": "release"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Find("targets").Children) != 2 {
		t.Fatalf("expected 2 generated stages, got %d", len(p.Find("targets").Children))
	}
	if p.Find("targets/amd64") == nil || p.Find("targets/arm64") == nil {
		t.Error("generated stages not found in plan")
	}
}

func TestCompile_GeneratorErrors(t *testing.T) {
	def := &domain.PipelineDefinition{
		Name:   "p",
		Stages: []domain.StageDef{{Name: "g", Generator: "missing"}},
	}

	if _, err := Compile(def, Options{}); !errors.Is(err, ErrUnknownGenerator) {
		t.Errorf("unregistered generator: got %v", err)
	}

	failing := GeneratorFunc(func(map[string]string) ([]domain.StageDef, error) {
		return nil, fmt.Errorf("no targets")
	})
	def.Stages[0].Generator = "boom"
	_, err := Compile(def, Options{Generators: map[string]Generator{"boom": failing}})
	if !errors.Is(err, ErrGeneratorFailed) {
		t.Errorf("failing generator: got %v", err)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	// Одинаковый вход даёт структурно равные планы
	a, err := Compile(simpleDef(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compile(simpleDef(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a.Root, b.Root) {
		t.Error("two compilations of the same definition must be structurally equal")
	}
}
