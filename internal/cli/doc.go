// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI работает в двух режимах:
//
//   - Клиентский: управление pipelines, runs, approvals и schedules
//     на сервере через HTTP API.
//   - Локальный: validate, plan и exec выполняют pipeline из YAML-файла
//     прямо в процессе CLI, без сервера и БД.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Conveyor API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	pipelines, err := client.ListPipelines()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conveyor pipeline list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - pipeline: list, create, show, update, delete, versions, publish
//   - run:      list, start, show, cancel, result
//   - approval: list, approve, reject
//   - schedule: list, create, show, update, delete, enable, disable
//   - validate, plan, exec — локальный режим
//
// Каждая группа создаётся через фабричную функцию (NewPipelineCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
