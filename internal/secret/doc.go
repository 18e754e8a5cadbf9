// Package secret отвечает за подстановку и маскирование секретов.
//
// Значения окружения вида secret://<id> разрешаются через Resolver
// при входе в область стадии. Разрешённое значение регистрируется
// в области для маскирования: логи и вывод шагов никогда не содержат
// секрет открытым текстом.
package secret
