package load

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Ошибки загрузки определений.
var (
	// ErrEmptyDocument — пустой YAML-документ.
	ErrEmptyDocument = errors.New("empty pipeline document")

	// ErrBadDocument — документ не разбирается как определение.
	ErrBadDocument = errors.New("malformed pipeline document")
)

// Read декодирует определение pipeline из потока.
func Read(r io.Reader) (*domain.PipelineDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	return Parse(data)
}

// Parse декодирует определение pipeline из YAML.
//
// Декодер строгий: неизвестные ключи — ошибка, чтобы опечатка в
// определении не превращалась в молча пропущенную стадию.
func Parse(data []byte) (*domain.PipelineDefinition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyDocument
	}

	var def domain.PipelineDefinition

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}

	if def.Name == "" {
		return nil, fmt.Errorf("%w: pipeline name is required", ErrBadDocument)
	}
	return &def, nil
}

// File читает определение pipeline из файла.
func File(path string) (*domain.PipelineDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pipeline file: %w", err)
	}
	defer f.Close()

	def, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
