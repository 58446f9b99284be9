package repo

import "errors"

// Сентинели уровня персистентности. Доменные ошибки (циклы, дубликаты
// рёбер, отклонённые переходы) живут в depgraph/workflow/tracker.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — нарушение уникальности при вставке.
	ErrAlreadyExists = errors.New("already exists")
)
