package domain

// Predicate — дерево условий выполнения стадии.
//
// Ровно одно поле предиката должно быть заполнено. Композиция
// через AllOf/AnyOf/Not. Вычисление чистое и тотальное:
// неразрешимые имена дают пустую строку/false, а не ошибку.
type Predicate struct {
	// Branch — равенство имени ветки (значение BRANCH_NAME в контексте).
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`

	// EnvEquals — равенство переменной окружения значению.
	EnvEquals *EnvEquals `json:"env_equals,omitempty" yaml:"env_equals,omitempty"`

	// EnvExists — непустое значение переменной окружения.
	EnvExists string `json:"env_exists,omitempty" yaml:"env_exists,omitempty"`

	// Expression — произвольное булево выражение над значениями
	// контекста (синтаксис govaluate). Проверяется при компиляции.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`

	// AllOf — логическое И.
	AllOf []Predicate `json:"all_of,omitempty" yaml:"all_of,omitempty"`

	// AnyOf — логическое ИЛИ.
	AnyOf []Predicate `json:"any_of,omitempty" yaml:"any_of,omitempty"`

	// Not — логическое НЕ.
	Not *Predicate `json:"not,omitempty" yaml:"not,omitempty"`
}

// EnvEquals — сравнение переменной окружения со значением.
type EnvEquals struct {
	// Name — имя переменной.
	Name string `json:"name" yaml:"name"`

	// Value — ожидаемое значение.
	Value string `json:"value" yaml:"value"`
}

// BranchVar — имя переменной контекста, хранящей текущую ветку.
const BranchVar = "BRANCH_NAME"
