package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
)

// ArchiveStep сохраняет артефакты по glob-маске.
//
// Конфигурация:
//
//	{"artifacts": "build/*.tar.gz"}
//	{"artifacts": "*.log", "allow_empty": true}
//
// Outputs:
//
//	{"count": 2, "total_size": 1048576}
//
// Пустое совпадение — неуспех шага, если не задан allow_empty.
type ArchiveStep struct {
	store artifact.Store
}

// NewArchiveStep создаёт исполнителя поверх хранилища store.
func NewArchiveStep(store artifact.Store) *ArchiveStep {
	return &ArchiveStep{store: store}
}

// Kind реализует Step.
func (s *ArchiveStep) Kind() string { return domain.KindArchive }

// Execute реализует Step.
func (s *ArchiveStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	pattern := ConfigString(req.Step.Config, "artifacts")
	if pattern == "" {
		return nil, fmt.Errorf("%w: archive step requires artifacts pattern", ErrInvalidConfig)
	}

	manifest, err := s.store.Archive(ctx, req.RunID, req.WorkDir, pattern)
	if err != nil {
		if ConfigBool(req.Step.Config, "allow_empty", false) && errors.Is(err, artifact.ErrNoMatches) {
			return NewResponse(map[string]any{"count": 0, "total_size": int64(0)}), nil
		}
		return nil, fmt.Errorf("archive artifacts: %w", err)
	}

	req.Log().Info("artifacts archived",
		"pattern", pattern,
		"count", len(manifest.Entries),
		"total_size", manifest.TotalSize(),
	)

	return NewResponse(map[string]any{
		"count":      len(manifest.Entries),
		"total_size": manifest.TotalSize(),
	}), nil
}
