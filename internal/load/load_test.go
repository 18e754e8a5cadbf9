package load

import (
	"errors"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

const sampleYAML = `
name: deploy-backend
agent: linux
env:
  CI: "true"
  TOKEN: secret://deploy-token
parameters:
  - name: ENVIRONMENT
    type: choice
    default: staging
    choices: [staging, prod]
options:
  timeout_sec: 3600
stages:
  - name: build
    steps:
      - name: compile
        kind: shell
        config:
          command: make build
  - name: verify
    mode: parallel
    stages:
      - name: unit
        steps:
          - kind: shell
            config:
              command: make test
      - name: lint
        options:
          retry: 2
        steps:
          - kind: shell
            config:
              command: make lint
  - name: deploy
    when:
      branch: main
    steps:
      - kind: shell
        config:
          command: make deploy
post:
  - trigger: failure
    step:
      kind: notify
      config:
        message: "deploy-backend failed"
`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "deploy-backend" || def.Agent != "linux" {
		t.Errorf("header: %+v", def)
	}
	if def.Env["TOKEN"] != "secret://deploy-token" {
		t.Errorf("env: %v", def.Env)
	}
	if len(def.Stages) != 3 {
		t.Fatalf("stages: got %d", len(def.Stages))
	}

	verify := def.Stages[1]
	if verify.Mode != domain.ModeParallel || len(verify.Stages) != 2 {
		t.Errorf("verify stage: %+v", verify)
	}
	if verify.Stages[1].Options.Retry != 2 {
		t.Errorf("lint retry: %+v", verify.Stages[1].Options)
	}

	deploy := def.Stages[2]
	if deploy.When == nil || deploy.When.Branch != "main" {
		t.Errorf("deploy condition: %+v", deploy.When)
	}

	if len(def.Post) != 1 || def.Post[0].Trigger != domain.TriggerFailure {
		t.Errorf("post: %+v", def.Post)
	}
	if def.Post[0].Step.Kind != domain.KindNotify {
		t.Errorf("post step: %+v", def.Post[0].Step)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse([]byte("   \n")); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestParse_UnknownField(t *testing.T) {
	doc := `
name: p
stagess:
  - name: build
`
	if _, err := Parse([]byte(doc)); !errors.Is(err, ErrBadDocument) {
		t.Errorf("typo in a key must be rejected, got %v", err)
	}
}

func TestParse_MissingName(t *testing.T) {
	doc := `
stages:
  - name: build
    steps:
      - kind: shell
`
	if _, err := Parse([]byte(doc)); !errors.Is(err, ErrBadDocument) {
		t.Errorf("expected ErrBadDocument, got %v", err)
	}
}
