// Package workflow содержит config-driven машину статусов.
//
// Включает:
//   - config.go    — типы декларативного документа конфигурации
//   - loader.go    — загрузка и полная валидация конфигурации (fail fast)
//   - resolver.go  — выбор активного flow по тегам, следующий статус
//   - validator.go — валидация запрошенных переходов с пререквизитами
//
// Workflow отвечает за понимание того, какие переходы статусов
// допустимы. Сами переходы применяет service-слой (internal/tracker)
// под lock scope — здесь нет ни мутаций, ни I/O.
package workflow
