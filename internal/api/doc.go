// Package api реализует HTTP API трекера.
//
// API построен на стандартном net/http с method-паттернами ServeMux
// (Go 1.22+) и цепочкой middleware (Recovery, Logging).
//
// Группы маршрутов:
//   - /api/v1/projects, /features, /tasks — иерархия контейнеров
//   - /api/v1/dependencies — граф зависимостей с preview-проверкой цикла
//   - /api/v1/containers/{type}/{id}/... — переходы статусов,
//     dry-run валидация, достижимые статусы, каскадные рекомендации
//
// Отклонённый переход возвращается как 422 с причиной и достижимыми
// статусами; таймаут блокировки — 409 с retryable=true.
package api
