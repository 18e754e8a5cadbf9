// Package condition вычисляет условия выполнения стадий.
//
// Формы предикатов: равенство ветки, равенство/наличие переменной
// окружения, произвольное булево выражение (govaluate) и композиция
// через all_of/any_of/not.
//
// Вычисление чистое (scope не изменяется) и тотальное: после успешной
// компиляции Evaluate никогда не возвращает ошибку — неразрешимые
// имена дают пустую строку, некорректное вычисление выражения — false.
// Синтаксис выражений проверяется на этапе компиляции плана (Check).
package condition
