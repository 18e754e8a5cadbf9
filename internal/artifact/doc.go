// Package artifact сохраняет артефакты сборки по glob-шаблонам.
//
// Store принимает шаблон относительно рабочего каталога запуска,
// копирует совпавшие файлы и возвращает Manifest с размерами и
// контрольными суммами. LocalStore раскладывает артефакты по
// каталогам <root>/<runID>/.
package artifact
