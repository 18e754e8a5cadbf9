package engine

import "errors"

// Ошибки движка.
var (
	// ErrNilPlan — движку передан пустой план.
	ErrNilPlan = errors.New("nil plan")

	// ErrSecretResolve — не удалось разрешить ссылку на секрет.
	ErrSecretResolve = errors.New("secret resolution failed")
)
