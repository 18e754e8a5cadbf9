package plan

import "errors"

// Ошибки компиляции.
var (
	// ErrEmptyPipeline — pipeline не содержит стадий.
	ErrEmptyPipeline = errors.New("pipeline has no stages")

	// ErrDuplicateStageName — имена стадий не уникальны среди сиблингов.
	ErrDuplicateStageName = errors.New("duplicate stage name among siblings")

	// ErrUnknownKind — неизвестный вид шага.
	ErrUnknownKind = errors.New("unknown step kind")

	// ErrInvalidOption — некорректная опция (отрицательный таймаут/retry).
	ErrInvalidOption = errors.New("invalid option")

	// ErrInvalidStage — стадия содержит одновременно стадии и шаги,
	// либо не содержит ничего.
	ErrInvalidStage = errors.New("invalid stage structure")

	// ErrInvalidCondition — предикат не прошёл проверку.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrUnknownGenerator — генератор стадий не зарегистрирован.
	ErrUnknownGenerator = errors.New("unknown stage generator")

	// ErrGeneratorFailed — генератор вернул ошибку.
	ErrGeneratorFailed = errors.New("stage generator failed")
)

// ErrorKind — вид ошибки компиляции.
type ErrorKind string

const (
	KindEmptyPipeline      ErrorKind = "EmptyPipeline"
	KindDuplicateStageName ErrorKind = "DuplicateStageName"
	KindUnknownDirective   ErrorKind = "UnknownDirective"
	KindInvalidOption      ErrorKind = "InvalidOption"
	KindInvalidStage       ErrorKind = "InvalidStage"
	KindInvalidCondition   ErrorKind = "InvalidCondition"
	KindUnknownGenerator   ErrorKind = "UnknownGenerator"
)

// CompileError — ошибка компиляции с привязкой к месту в дереве.
type CompileError struct {
	// Kind — вид ошибки.
	Kind ErrorKind

	// Path — путь узла, где обнаружена ошибка ("" — уровень pipeline).
	Path string

	// Message — описание ошибки.
	Message string

	// Err — базовая ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *CompileError) Error() string {
	if e.Path != "" {
		return string(e.Kind) + " at " + e.Path + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// newError создаёт CompileError.
func newError(kind ErrorKind, path, message string, err error) *CompileError {
	return &CompileError{Kind: kind, Path: path, Message: message, Err: err}
}
