// Package load читает определения pipeline из YAML.
//
// Загрузчик только декодирует и нормализует структуру; вся
// содержательная валидация происходит при компиляции плана.
package load
