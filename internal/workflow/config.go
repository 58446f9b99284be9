package workflow

import (
	"github.com/shaiso/Tracker/internal/domain"
)

// Идентификаторы пререквизит-предикатов, которыми конфигурация
// может помечать рёбра переходов. Сами предикаты реализованы
// в Validator; неизвестный идентификатор — ошибка загрузки.
const (
	// PrereqHasChildren — у контейнера есть хотя бы один прямой потомок.
	PrereqHasChildren = "has_children"

	// PrereqDescendantsTerminal — все прямые потомки в терминальном статусе.
	PrereqDescendantsTerminal = "descendants_terminal"

	// PrereqSummaryComplete — длина summary task попадает в настроенное окно.
	PrereqSummaryComplete = "summary_complete"

	// PrereqDependenciesResolved — нет незавершённых источников
	// входящих BLOCKS рёбер.
	PrereqDependenciesResolved = "dependencies_resolved"
)

// knownPrereqs — допустимые идентификаторы пререквизитов.
var knownPrereqs = map[string]bool{
	PrereqHasChildren:          true,
	PrereqDescendantsTerminal:  true,
	PrereqSummaryComplete:      true,
	PrereqDependenciesResolved: true,
}

// Config — декларативный документ конфигурации workflow.
//
// Загружается один раз на resolution и далее трактуется как
// иммутабельный: ни один компонент не изменяет Config после Load.
type Config struct {
	// DefaultFlow — имя flow, используемого когда ни одно правило
	// FlowMapping не совпало с тегами контейнера.
	DefaultFlow string `json:"default_flow"`

	// SummaryWindow — окно допустимой длины summary для перехода
	// task в completed.
	SummaryWindow SummaryWindow `json:"summary_window"`

	// Flows — именованные графы статусов (имя → определение).
	Flows map[string]*Flow `json:"flows"`

	// FlowMapping — упорядоченная таблица правил tag→flow.
	// Побеждает первое совпадение.
	FlowMapping []MappingRule `json:"flow_mapping"`
}

// SummaryWindow — допустимое окно длины summary (в символах, включительно).
type SummaryWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Flow — именованный направленный граф статус-литералов.
type Flow struct {
	// Name — имя flow (дублирует ключ в Config.Flows, заполняется при загрузке).
	Name string `json:"-"`

	// AppliesTo — типы контейнеров, для которых flow определяет
	// множество допустимых статусов.
	AppliesTo []domain.ContainerType `json:"applies_to"`

	// Initial — стартовый статус новых контейнеров этого flow.
	Initial string `json:"initial"`

	// Transitions — рёбра графа переходов.
	Transitions []Transition `json:"transitions"`
}

// Transition — помеченное ребро flow.
type Transition struct {
	// From — исходный статус.
	From string `json:"from"`

	// To — целевой статус.
	To string `json:"to"`

	// Event — метка события, по которой выбирается ребро.
	// Пустая метка означает "переход по умолчанию".
	Event string `json:"event,omitempty"`

	// Requires — идентификаторы пререквизит-предикатов ребра.
	Requires []string `json:"requires,omitempty"`

	// Automatic — помечает переход безопасным для автоприменения
	// (используется детектором каскадов, сам движок не применяет).
	Automatic bool `json:"automatic,omitempty"`
}

// MappingRule — одно правило таблицы tag→flow.
type MappingRule struct {
	// Tags — теги, любое из которых выбирает flow.
	Tags []string `json:"tags"`

	// Flow — имя выбираемого flow.
	Flow string `json:"flow"`
}

// Statuses возвращает полный набор статус-литералов flow:
// initial плюс все from/to рёбер. Порядок не определён.
func (f *Flow) Statuses() map[string]bool {
	statuses := make(map[string]bool)
	if f.Initial != "" {
		statuses[f.Initial] = true
	}
	for _, tr := range f.Transitions {
		statuses[tr.From] = true
		statuses[tr.To] = true
	}
	return statuses
}

// outgoing возвращает рёбра, исходящие из статуса, в порядке объявления.
func (f *Flow) outgoing(status string) []Transition {
	var out []Transition
	for _, tr := range f.Transitions {
		if tr.From == status {
			out = append(out, tr)
		}
	}
	return out
}

// appliesTo проверяет, что flow определён для типа контейнера.
func (f *Flow) appliesTo(t domain.ContainerType) bool {
	for _, a := range f.AppliesTo {
		if a == t {
			return true
		}
	}
	return false
}
