package scm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Ошибки получения исходников.
var (
	// ErrEmptyRepo — не задана ссылка на репозиторий.
	ErrEmptyRepo = errors.New("empty repository reference")

	// ErrFetchFailed — не удалось получить рабочую копию.
	ErrFetchFailed = errors.New("source fetch failed")
)

// Checkout — описание запрошенной рабочей копии.
type Checkout struct {
	// Repo — ссылка на репозиторий (URL или путь).
	Repo string

	// Ref — ветка, тег или коммит. Пустое значение — ветка по умолчанию.
	Ref string

	// Dir — каталог, в котором готовится рабочая копия.
	Dir string
}

// Provider — контракт получения исходного кода.
type Provider interface {
	// Fetch готовит рабочую копию и возвращает фактическую ревизию.
	Fetch(ctx context.Context, co Checkout) (string, error)
}

// GitProvider получает код через системный git.
type GitProvider struct{}

// Fetch реализует Provider: клонирует репозиторий с глубиной 1
// и возвращает хеш HEAD.
func (GitProvider) Fetch(ctx context.Context, co Checkout) (string, error) {
	if co.Repo == "" {
		return "", ErrEmptyRepo
	}

	args := []string{"clone", "--depth", "1"}
	if co.Ref != "" {
		args = append(args, "--branch", co.Ref)
	}
	args = append(args, co.Repo, co.Dir)

	clone := exec.CommandContext(ctx, "git", args...)
	if out, err := clone.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w: git clone: %s", ErrFetchFailed, strings.TrimSpace(string(out)))
	}

	rev := exec.CommandContext(ctx, "git", "-C", co.Dir, "rev-parse", "HEAD")
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("%w: git rev-parse: %v", ErrFetchFailed, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LocalProvider копирует каталог с исходниками как есть.
type LocalProvider struct{}

// Fetch реализует Provider. Ревизией считается сама ссылка.
func (LocalProvider) Fetch(ctx context.Context, co Checkout) (string, error) {
	if co.Repo == "" {
		return "", ErrEmptyRepo
	}

	info, err := os.Stat(co.Repo)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: not a directory: %s", ErrFetchFailed, co.Repo)
	}

	if err := copyTree(ctx, co.Repo, co.Dir); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return co.Repo, nil
}

// copyTree рекурсивно копирует каталог src в dst.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, in)
		return err
	})
}
