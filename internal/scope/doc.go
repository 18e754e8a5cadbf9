// Package scope реализует контекст окружения и параметров run.
//
// Привязки организованы в стек кадров (shadow frames): вход в стадию
// кладёт кадр с локальными переменными поверх унаследованных, выход —
// снимает его независимо от исхода стадии. Параметры запуска
// неизменяемы и видны из любого кадра, пока не затенены.
//
// Для параллельных веток используется copy-on-fork: каждая ветка
// получает собственную копию стека, поэтому записи одной ветки
// не видны сиблингам и не требуют блокировок.
//
// Значения секретов регистрируются в scope и редактируются
// на границе логирования и захвата вывода.
package scope
