package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scm"
)

// CheckoutStep получает рабочую копию исходников.
//
// Конфигурация:
//
//	{"repo": "https://git.example.com/app.git", "ref": "main"}
//	{"repo": "...", "dir": "src"}
//
// Outputs:
//
//	{"revision": "abc123..."}
//
// Если repo не задан, берётся переменная REPO_URL из области, а
// ref по умолчанию — BRANCH_NAME.
type CheckoutStep struct {
	provider scm.Provider
}

// NewCheckoutStep создаёт исполнителя поверх провайдера.
func NewCheckoutStep(provider scm.Provider) *CheckoutStep {
	return &CheckoutStep{provider: provider}
}

// Kind реализует Step.
func (s *CheckoutStep) Kind() string { return domain.KindCheckout }

// Execute реализует Step.
func (s *CheckoutStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	repo := ConfigString(req.Step.Config, "repo")
	ref := ConfigString(req.Step.Config, "ref")
	if req.Env != nil {
		if repo == "" {
			repo = req.Env.Get("REPO_URL")
		}
		if ref == "" {
			ref = req.Env.Get(domain.BranchVar)
		}
	}
	if repo == "" {
		return nil, fmt.Errorf("%w: checkout step requires repo", ErrInvalidConfig)
	}

	dir := req.WorkDir
	if sub := ConfigString(req.Step.Config, "dir"); sub != "" {
		dir = dir + "/" + sub
	}

	revision, err := s.provider.Fetch(ctx, scm.Checkout{Repo: repo, Ref: ref, Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	req.Log().Info("source checked out", "repo", repo, "ref", ref, "revision", revision)

	return NewResponse(map[string]any{"revision": revision}), nil
}
