package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Ошибки хранилища артефактов.
var (
	// ErrNoMatches — шаблон не совпал ни с одним файлом.
	ErrNoMatches = errors.New("artifact pattern matched no files")

	// ErrBadPattern — невалидный glob-шаблон.
	ErrBadPattern = errors.New("invalid artifact pattern")
)

// Entry — один сохранённый артефакт.
type Entry struct {
	// Path — путь файла относительно рабочего каталога.
	Path string `json:"path"`

	// Size — размер в байтах.
	Size int64 `json:"size"`

	// SHA256 — контрольная сумма содержимого.
	SHA256 string `json:"sha256"`
}

// Manifest — результат архивирования.
type Manifest struct {
	// RunID — запуск, которому принадлежат артефакты.
	RunID string `json:"run_id"`

	// Pattern — исходный glob-шаблон.
	Pattern string `json:"pattern"`

	// Entries — сохранённые файлы.
	Entries []Entry `json:"entries"`

	// StoredAt — момент сохранения.
	StoredAt time.Time `json:"stored_at"`
}

// TotalSize возвращает суммарный размер артефактов.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, e := range m.Entries {
		total += e.Size
	}
	return total
}

// Store — контракт хранилища артефактов.
type Store interface {
	// Archive сохраняет файлы workDir, совпавшие с pattern.
	Archive(ctx context.Context, runID, workDir, pattern string) (*Manifest, error)
}

// LocalStore хранит артефакты в локальном каталоге.
type LocalStore struct {
	root string
}

// NewLocalStore создаёт хранилище с корнем root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Archive реализует Store.
//
// Шаблон интерпретируется через filepath.Glob относительно workDir;
// "**" не поддерживается, вложенные каталоги задаются явно
// ("build/*.tar.gz"). Совпавшие каталоги пропускаются.
func (s *LocalStore) Archive(ctx context.Context, runID, workDir, pattern string) (*Manifest, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadPattern, pattern)
	}

	manifest := &Manifest{
		RunID:    runID,
		Pattern:  pattern,
		StoredAt: time.Now().UTC(),
	}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(match)
		if err != nil {
			return nil, fmt.Errorf("stat artifact: %w", err)
		}
		if info.IsDir() {
			continue
		}

		rel, err := filepath.Rel(workDir, match)
		if err != nil {
			return nil, fmt.Errorf("artifact path: %w", err)
		}

		entry, err := s.store(runID, workDir, rel, info)
		if err != nil {
			return nil, err
		}
		manifest.Entries = append(manifest.Entries, entry)
	}

	if len(manifest.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, pattern)
	}
	return manifest, nil
}

// store копирует один файл в каталог запуска и считает его сумму.
func (s *LocalStore) store(runID, workDir, rel string, info fs.FileInfo) (Entry, error) {
	src, err := os.Open(filepath.Join(workDir, rel))
	if err != nil {
		return Entry{}, fmt.Errorf("open artifact: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(s.root, runID, rel)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return Entry{}, fmt.Errorf("create artifact dir: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return Entry{}, fmt.Errorf("create artifact: %w", err)
	}
	defer dst.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), src); err != nil {
		return Entry{}, fmt.Errorf("copy artifact: %w", err)
	}

	return Entry{
		Path:   filepath.ToSlash(rel),
		Size:   info.Size(),
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
