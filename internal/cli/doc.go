// Package cli реализует инструмент командной строки Tracker.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Tracker API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления иерархией projects/features/tasks,
// графом зависимостей и переходами статусов.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Tracker API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	projects, err := client.ListProjects(0)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: tracker project list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - project: list, create, show, features, add-feature
//   - task: list, create, show, update, delete
//   - dep: add, rm, list, check
//   - status: set, validate, next, reachable, allowed, cascade
//
// Каждая группа создаётся через фабричную функцию (NewProjectCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
