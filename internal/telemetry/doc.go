// Package telemetry — наблюдаемость трекера.
//
// logging.go настраивает structured logging через slog (формат и
// уровень задаются переменными окружения) и даёт хелперы для
// request-scoped логгеров и доменных полей (container, dependency).
//
// metrics.go объявляет Prometheus счётчики переходов, отклонённых
// валидаций, циклов в графе, таймаутов блокировок и cascade-событий.
// Каждый сервис экспортирует их на своём /metrics endpoint.
package telemetry
