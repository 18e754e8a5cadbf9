package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — конфликт уникальности: имя pipeline,
	// номер версии или ключ идемпотентности уже заняты.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — операция несовместима с текущим статусом записи.
	ErrInvalidState = errors.New("invalid state")
)
