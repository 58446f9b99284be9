package domain

import "github.com/google/uuid"

// CascadeEventName — имя каскадного события.
type CascadeEventName string

const (
	// CascadeAllTasksComplete — все дочерние контейнеры родителя
	// достигли терминального статуса.
	CascadeAllTasksComplete CascadeEventName = "all_tasks_complete"

	// CascadeFirstTaskStarted — ровно один дочерний контейнер
	// покинул стартовый статус.
	CascadeFirstTaskStarted CascadeEventName = "first_task_started"
)

// CascadeEvent — рекомендация перехода статуса, обнаруженная детектором
// после изменения статуса или зависимости.
//
// Событие эфемерно: не персистится и пересчитывается заново при каждом
// вызове детектора. Применение рекомендации — всегда отдельный явный
// вызов через Resolver+Validator; детектор ничего не применяет.
type CascadeEvent struct {
	// Event — имя события.
	Event CascadeEventName `json:"event"`

	// TargetType — тип контейнера, которому предлагается переход.
	TargetType ContainerType `json:"target_type"`

	// TargetID — идентификатор контейнера-цели.
	TargetID uuid.UUID `json:"target_id"`

	// TargetName — имя контейнера-цели.
	TargetName string `json:"target_name"`

	// CurrentStatus — текущий статус цели.
	CurrentStatus string `json:"current_status"`

	// SuggestedStatus — предлагаемый статус.
	SuggestedStatus string `json:"suggested_status"`

	// Flow — имя активного flow цели.
	Flow string `json:"flow"`

	// Automatic — помечен ли переход в конфигурации как безопасный
	// для автоприменения. Само применение всё равно отдельный вызов.
	Automatic bool `json:"automatic"`

	// Reason — человекочитаемое объяснение рекомендации.
	Reason string `json:"reason"`
}
