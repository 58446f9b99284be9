package domain

// Набор статусов контейнеров задаётся декларативной конфигурацией flow
// (см. internal/workflow), а не фиксированным enum. Здесь объявлены
// только литералы, на которые опирается сама семантика движка:
// стартовый статус и терминальные статусы.

const (
	// StatusPending — стартовый статус новых контейнеров.
	StatusPending = "pending"

	// StatusCompleted — успешное терминальное завершение.
	StatusCompleted = "completed"

	// StatusCancelled — терминальная отмена.
	StatusCancelled = "cancelled"
)

// IsTerminalStatus возвращает true для терминальных статусов.
// Контейнер в терминальном статусе не учитывается как
// "незавершённый потомок" в структурных пререквизитах.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
