package workflow

import (
	"fmt"
	"sort"

	"github.com/shaiso/Tracker/internal/domain"
)

// Resolver выбирает активный flow контейнера и вычисляет следующий
// достижимый статус.
//
// Resolver чистый и идемпотентный: не выполняет I/O и ничего не
// мутирует, поэтому безопасен и для preview, и для реального перехода.
type Resolver struct {
	cfg *Config
}

// NewResolver создаёт Resolver поверх загруженной конфигурации.
func NewResolver(cfg *Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Config возвращает конфигурацию, поверх которой работает Resolver.
func (r *Resolver) Config() *Config {
	return r.cfg
}

// FlowFor выбирает активный flow по набору тегов контейнера.
//
// Правила flow_mapping проверяются по порядку, побеждает первое
// совпадение любого тега. Если ни одно правило не совпало,
// возвращается default flow.
func (r *Resolver) FlowFor(tags []string) *Flow {
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}

	for _, rule := range r.cfg.FlowMapping {
		for _, t := range rule.Tags {
			if tagSet[t] {
				return r.cfg.Flows[rule.Flow]
			}
		}
	}

	return r.cfg.Flows[r.cfg.DefaultFlow]
}

// NextStatus — результат вычисления следующего статуса.
type NextStatus struct {
	// Flow — имя активного flow.
	Flow string

	// Target — целевой статус. Пуст, если перехода нет.
	Target string

	// Found — false означает явный результат "дальше переходов нет".
	Found bool

	// Automatic — переход помечен безопасным для автоприменения.
	Automatic bool

	// Requires — пререквизиты выбранного ребра.
	Requires []string
}

// Next вычисляет следующий статус из current по событию event.
//
// Если event пуст, берётся первое объявленное исходящее ребро.
// Если из current нет подходящего ребра, возвращается явный
// результат Found=false — Resolver никогда не "угадывает".
func (r *Resolver) Next(tags []string, current, event string) (NextStatus, error) {
	flow := r.FlowFor(tags)

	if !flow.Statuses()[current] {
		return NextStatus{}, fmt.Errorf("%w: %q in flow %q", ErrUnknownStatus, current, flow.Name)
	}

	for _, tr := range flow.outgoing(current) {
		if event != "" && tr.Event != event {
			continue
		}
		return NextStatus{
			Flow:      flow.Name,
			Target:    tr.To,
			Found:     true,
			Automatic: tr.Automatic,
			Requires:  tr.Requires,
		}, nil
	}

	return NextStatus{Flow: flow.Name, Found: false}, nil
}

// Edge возвращает ребро current → requested активного flow, если оно есть.
func (r *Resolver) Edge(tags []string, current, requested string) (Transition, bool) {
	flow := r.FlowFor(tags)
	for _, tr := range flow.outgoing(current) {
		if tr.To == requested {
			return tr, true
		}
	}
	return Transition{}, false
}

// Reachable возвращает полное множество статусов, достижимых из current
// в активном flow (транзитивное замыкание, без самого current).
// Результат отсортирован для детерминированных сообщений об ошибках.
func (r *Resolver) Reachable(tags []string, current string) []string {
	flow := r.FlowFor(tags)

	visited := map[string]bool{current: true}
	queue := []string{current}

	for len(queue) > 0 {
		status := queue[0]
		queue = queue[1:]

		for _, tr := range flow.outgoing(status) {
			if !visited[tr.To] {
				visited[tr.To] = true
				queue = append(queue, tr.To)
			}
		}
	}

	delete(visited, current)

	reachable := make([]string, 0, len(visited))
	for s := range visited {
		reachable = append(reachable, s)
	}
	sort.Strings(reachable)

	return reachable
}

// AllowedStatuses возвращает полный набор статус-литералов для типа
// контейнера — объединение статусов всех flows, применимых к типу.
// Источник — конфигурация, не зашитый enum. Результат отсортирован.
func (r *Resolver) AllowedStatuses(t domain.ContainerType) []string {
	set := make(map[string]bool)
	for _, flow := range r.cfg.Flows {
		if !flow.appliesTo(t) {
			continue
		}
		for s := range flow.Statuses() {
			set[s] = true
		}
	}

	statuses := make([]string, 0, len(set))
	for s := range set {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	return statuses
}

// ValidateStatus — дешёвая синтаксическая проверка принадлежности
// статуса множеству допустимых для типа контейнера. Не проверяет
// достижимость (это задача Validator.ValidateTransition).
func (r *Resolver) ValidateStatus(status string, t domain.ContainerType) bool {
	for _, flow := range r.cfg.Flows {
		if flow.appliesTo(t) && flow.Statuses()[status] {
			return true
		}
	}
	return false
}

// InitialStatus возвращает стартовый статус активного flow
// для контейнера с данными тегами.
func (r *Resolver) InitialStatus(tags []string) string {
	return r.FlowFor(tags).Initial
}
