// Package scm получает исходный код для шага checkout.
//
// Provider — абстракция системы контроля версий: по ссылке на
// репозиторий и ревизии готовит рабочую копию в указанном каталоге.
// GitProvider вызывает системный git; LocalProvider копирует каталог
// и используется в тестах и при локальных запусках.
package scm
