package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContainerType — тип контейнера в трёхуровневой иерархии.
//
// Иерархия: Project → Feature → Task.
// Task — листовой уровень, только tasks могут иметь зависимости.
type ContainerType string

const (
	// ContainerTypeProject — корневой уровень иерархии.
	ContainerTypeProject ContainerType = "project"

	// ContainerTypeFeature — средний уровень, принадлежит project.
	ContainerTypeFeature ContainerType = "feature"

	// ContainerTypeTask — листовой уровень, принадлежит feature.
	ContainerTypeTask ContainerType = "task"
)

// IsValid проверяет, что тип контейнера известен.
func (t ContainerType) IsValid() bool {
	switch t {
	case ContainerTypeProject, ContainerTypeFeature, ContainerTypeTask:
		return true
	default:
		return false
	}
}

// ParseContainerType парсит строку в ContainerType.
// Возвращает false, если строка не является известным типом.
func ParseContainerType(s string) (ContainerType, bool) {
	t := ContainerType(s)
	return t, t.IsValid()
}

// Project — корневой контейнер работ.
//
// Статус project изменяется только через Resolver+Validator,
// прямой записи поля status нет ни в одном пути кода.
type Project struct {
	// ID — уникальный идентификатор project.
	ID uuid.UUID `json:"id"`

	// Name — человекочитаемое имя project.
	Name string `json:"name"`

	// Status — текущий статус (литерал из активного flow).
	Status string `json:"status"`

	// Tags — набор тегов. Определяет выбор flow (первое совпадение
	// в упорядоченной таблице tag→flow).
	Tags []string `json:"tags,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Feature — контейнер среднего уровня, группа tasks внутри project.
type Feature struct {
	// ID — уникальный идентификатор feature.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на родительский project.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — человекочитаемое имя feature.
	Name string `json:"name"`

	// Status — текущий статус (литерал из активного flow).
	Status string `json:"status"`

	// Tags — набор тегов для выбора flow.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Task — листовая единица работы.
//
// Только tasks участвуют в графе зависимостей и несут summary,
// длина которого проверяется перед переходом в completed.
type Task struct {
	// ID — уникальный идентификатор task.
	ID uuid.UUID `json:"id"`

	// FeatureID — ссылка на родительскую feature.
	FeatureID uuid.UUID `json:"feature_id"`

	// Name — человекочитаемое имя task.
	Name string `json:"name"`

	// Status — текущий статус (литерал из активного flow).
	Status string `json:"status"`

	// Summary — итоговое описание выполненной работы.
	// Обязательно попадает в настроенное окно длины перед completed.
	Summary string `json:"summary,omitempty"`

	// Tags — набор тегов для выбора flow.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// Container — обобщённое представление любого уровня иерархии.
// Используется там, где операция одинаково работает с project,
// feature и task (валидация переходов, детектор каскадов).
type Container struct {
	// ID — идентификатор контейнера.
	ID uuid.UUID `json:"id"`

	// Type — уровень иерархии.
	Type ContainerType `json:"type"`

	// ParentID — родитель (feature для task, project для feature).
	// uuid.Nil для project.
	ParentID uuid.UUID `json:"parent_id,omitempty"`

	// Name — имя контейнера.
	Name string `json:"name"`

	// Status — текущий статус.
	Status string `json:"status"`

	// Summary — summary (заполнено только для task).
	Summary string `json:"summary,omitempty"`

	// Tags — теги контейнера.
	Tags []string `json:"tags,omitempty"`
}

// AsContainer приводит Project к обобщённому Container.
func (p *Project) AsContainer() Container {
	return Container{
		ID:     p.ID,
		Type:   ContainerTypeProject,
		Name:   p.Name,
		Status: p.Status,
		Tags:   p.Tags,
	}
}

// AsContainer приводит Feature к обобщённому Container.
func (f *Feature) AsContainer() Container {
	return Container{
		ID:       f.ID,
		Type:     ContainerTypeFeature,
		ParentID: f.ProjectID,
		Name:     f.Name,
		Status:   f.Status,
		Tags:     f.Tags,
	}
}

// AsContainer приводит Task к обобщённому Container.
func (t *Task) AsContainer() Container {
	return Container{
		ID:       t.ID,
		Type:     ContainerTypeTask,
		ParentID: t.FeatureID,
		Name:     t.Name,
		Status:   t.Status,
		Summary:  t.Summary,
		Tags:     t.Tags,
	}
}
