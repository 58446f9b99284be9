package depgraph

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Ошибки графа зависимостей.
var (
	// ErrSelfDependency — task не может зависеть от самого себя.
	ErrSelfDependency = errors.New("task cannot depend on itself")

	// ErrDuplicateDependency — ребро (from, to, type) уже существует.
	ErrDuplicateDependency = errors.New("dependency already exists")

	// ErrCyclicDependency — ребро замкнуло бы цикл в подграфе BLOCKS.
	ErrCyclicDependency = errors.New("dependency would create a cycle")

	// ErrInvalidDependencyType — неизвестный тип зависимости.
	ErrInvalidDependencyType = errors.New("invalid dependency type")

	// ErrInvalidDirection — неизвестное направление выборки.
	ErrInvalidDirection = errors.New("invalid dependency direction")

	// ErrTraversalDepthExceeded — обход упёрся в предел глубины,
	// ацикличность подтвердить нельзя. Вставка отклоняется.
	ErrTraversalDepthExceeded = errors.New("dependency graph traversal depth exceeded")
)

// CycleError — конфликт: вставка ребра замкнула бы цикл.
// Path содержит цикл целиком, начиная и заканчивая источником
// нового ребра: from → to → ... → from.
type CycleError struct {
	From uuid.UUID
	To   uuid.UUID
	Path []uuid.UUID
}

// Error реализует интерфейс error.
func (e *CycleError) Error() string {
	nodes := make([]string, len(e.Path))
	for i, id := range e.Path {
		nodes[i] = id.String()
	}
	return "dependency would create a cycle (" + strings.Join(nodes, " → ") + ")"
}

// Unwrap возвращает базовую ошибку.
func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}
