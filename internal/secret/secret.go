package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Scheme — префикс ссылки на секрет в значениях окружения.
const Scheme = "secret://"

// Ошибки разрешения секретов.
var (
	// ErrNotFound — секрет с таким идентификатором не найден.
	ErrNotFound = errors.New("secret not found")
)

// Resolver — контракт хранилища секретов.
type Resolver interface {
	// Resolve возвращает значение секрета по идентификатору.
	Resolve(ctx context.Context, id string) (string, error)
}

// IsRef проверяет, является ли значение ссылкой на секрет.
func IsRef(value string) bool {
	return strings.HasPrefix(value, Scheme)
}

// RefID извлекает идентификатор секрета из ссылки.
func RefID(value string) string {
	return strings.TrimPrefix(value, Scheme)
}

// EnvResolver разрешает секреты из переменных окружения процесса.
//
// Идентификатор секрета приводится к виду переменной окружения:
// буквы в верхний регистр, разделители в подчёркивания, плюс
// необязательный префикс. Секрет "deploy-token" с префиксом
// CONVEYOR_SECRET_ ищется в CONVEYOR_SECRET_DEPLOY_TOKEN.
type EnvResolver struct {
	// Prefix — префикс переменных окружения. Пустой допустим.
	Prefix string
}

// Resolve реализует Resolver.
func (r *EnvResolver) Resolve(_ context.Context, id string) (string, error) {
	name := r.Prefix + envName(id)
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("%w: %s (env %s)", ErrNotFound, id, name)
	}
	return value, nil
}

// envName нормализует идентификатор секрета в имя переменной.
func envName(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StaticResolver — хранилище секретов в памяти.
//
// Используется в тестах и при локальном запуске pipeline из CLI.
type StaticResolver struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewStaticResolver создаёт хранилище с начальным набором секретов.
func NewStaticResolver(secrets map[string]string) *StaticResolver {
	s := &StaticResolver{secrets: make(map[string]string, len(secrets))}
	for id, v := range secrets {
		s.secrets[id] = v
	}
	return s
}

// Set добавляет или заменяет секрет.
func (s *StaticResolver) Set(id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[id] = value
}

// Resolve реализует Resolver.
func (s *StaticResolver) Resolve(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.secrets[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return value, nil
}
