package domain

import (
	"time"

	"github.com/google/uuid"
)

// DependencyType — тип ребра зависимости между двумя tasks.
type DependencyType string

const (
	// DependencyBlocks — направленное ребро: from блокирует to.
	// Подграф BLOCKS обязан оставаться ацикличным.
	DependencyBlocks DependencyType = "BLOCKS"

	// DependencyIsBlockedBy — логический реверс BLOCKS.
	// Не хранится: IS_BLOCKED_BY(A, B) нормализуется в BLOCKS(B, A)
	// до всех проверок и записи.
	DependencyIsBlockedBy DependencyType = "IS_BLOCKED_BY"

	// DependencyRelatesTo — симметричная связь "см. также".
	// Исключена из анализа циклов.
	DependencyRelatesTo DependencyType = "RELATES_TO"
)

// IsValid проверяет, что тип зависимости известен.
func (t DependencyType) IsValid() bool {
	switch t {
	case DependencyBlocks, DependencyIsBlockedBy, DependencyRelatesTo:
		return true
	default:
		return false
	}
}

// Directional возвращает true для направленных типов,
// участвующих в анализе циклов.
func (t DependencyType) Directional() bool {
	return t == DependencyBlocks || t == DependencyIsBlockedBy
}

// Dependency — ребро зависимости между двумя tasks.
//
// Инварианты:
//   - FromTaskID != ToTaskID
//   - пара (from, to, type) уникальна
//   - подграф BLOCKS ацикличен
//
// Создаётся только через валидирующий путь DependencyGraphStore;
// удаляется явным delete или каскадным delete-by-task.
type Dependency struct {
	// ID — уникальный идентификатор ребра.
	ID uuid.UUID `json:"id"`

	// FromTaskID — источник ребра.
	FromTaskID uuid.UUID `json:"from_task_id"`

	// ToTaskID — приёмник ребра.
	ToTaskID uuid.UUID `json:"to_task_id"`

	// Type — тип ребра. В хранилище встречаются только
	// BLOCKS и RELATES_TO (см. Normalize).
	Type DependencyType `json:"type"`

	// CreatedAt — время создания ребра.
	CreatedAt time.Time `json:"created_at"`
}

// Normalize приводит ребро к каноничной форме хранения:
// IS_BLOCKED_BY(A, B) становится BLOCKS(B, A).
// BLOCKS и RELATES_TO возвращаются без изменений.
func (d Dependency) Normalize() Dependency {
	if d.Type != DependencyIsBlockedBy {
		return d
	}
	return Dependency{
		ID:         d.ID,
		FromTaskID: d.ToTaskID,
		ToTaskID:   d.FromTaskID,
		Type:       DependencyBlocks,
		CreatedAt:  d.CreatedAt,
	}
}

// Direction — направление выборки зависимостей task.
type Direction string

const (
	// DirectionIncoming — рёбра, входящие в task (task — приёмник).
	DirectionIncoming Direction = "incoming"

	// DirectionOutgoing — рёбра, исходящие из task (task — источник).
	DirectionOutgoing Direction = "outgoing"

	// DirectionAll — все рёбра task.
	DirectionAll Direction = "all"
)

// IsValid проверяет, что направление известно.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionIncoming, DirectionOutgoing, DirectionAll:
		return true
	default:
		return false
	}
}
