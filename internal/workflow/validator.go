package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
)

// Outcome — исход валидации перехода.
type Outcome string

const (
	// OutcomeValid — переход допустим.
	OutcomeValid Outcome = "valid"

	// OutcomeValidWithAdvisory — переход допустим, но есть замечание.
	OutcomeValidWithAdvisory Outcome = "valid_with_advisory"

	// OutcomeInvalid — переход недопустим.
	OutcomeInvalid Outcome = "invalid"
)

// Result — результат валидации перехода.
type Result struct {
	// Outcome — исход проверки.
	Outcome Outcome `json:"outcome"`

	// Advisory — замечание для OutcomeValidWithAdvisory.
	Advisory string `json:"advisory,omitempty"`

	// Reason — машиночитаемая причина отказа для OutcomeInvalid.
	Reason string `json:"reason,omitempty"`

	// Suggestions — статусы, достижимые из текущего
	// (заполняется при структурно недопустимом переходе).
	Suggestions []string `json:"suggestions,omitempty"`
}

// OK возвращает true для обоих допустимых исходов.
func (r Result) OK() bool {
	return r.Outcome != OutcomeInvalid
}

// PrereqContext — снимок состояния, необходимый пререквизит-предикатам.
//
// Собирается вызывающей стороной (service-слой) из репозиториев и графа
// зависимостей одним чтением до валидации: Validator чистый и сам
// никакого I/O не выполняет.
type PrereqContext struct {
	// ChildCount — число прямых потомков контейнера.
	ChildCount int

	// NonTerminalChildren — число прямых потомков в нетерминальном статусе.
	NonTerminalChildren int

	// SummaryLength — длина summary (в символах), только для task.
	SummaryLength int

	// BlockingTaskIDs — незавершённые источники входящих BLOCKS рёбер.
	BlockingTaskIDs []uuid.UUID

	// UnblockedTaskIDs — приёмники исходящих BLOCKS рёбер, которые
	// разблокирует завершение контейнера (для advisory).
	UnblockedTaskIDs []uuid.UUID
}

// TransitionRequest — запрос на валидацию перехода.
type TransitionRequest struct {
	// Current — текущий статус контейнера.
	Current string

	// Requested — запрашиваемый статус.
	Requested string

	// ContainerType — уровень иерархии.
	ContainerType domain.ContainerType

	// ContainerID — идентификатор контейнера.
	ContainerID uuid.UUID

	// Tags — теги контейнера (определяют активный flow).
	Tags []string

	// Prereq — снимок состояния для пререквизитов.
	Prereq PrereqContext
}

// Validator проверяет запрошенные переходы статусов: структурную
// допустимость (ребро существует в активном flow) и пререквизиты.
//
// Проверки выполняются по порядку с остановкой на первом отказе:
//  1. Ребро current → requested существует в активном flow.
//  2. Структурные пререквизиты ребра (has_children,
//     descendants_terminal, summary_complete).
//  3. Пререквизит зависимостей (dependencies_resolved).
type Validator struct {
	resolver *Resolver
}

// NewValidator создаёт Validator поверх Resolver.
func NewValidator(resolver *Resolver) *Validator {
	return &Validator{resolver: resolver}
}

// ValidateTransition валидирует запрошенный переход.
//
// Ничего не мутирует: решение о применении перехода принимает
// вызывающая сторона под своим lock scope.
func (v *Validator) ValidateTransition(req TransitionRequest) Result {
	// 1. Структурная допустимость: ребро должно существовать.
	edge, ok := v.resolver.Edge(req.Tags, req.Current, req.Requested)
	if !ok {
		flow := v.resolver.FlowFor(req.Tags)
		return Result{
			Outcome: OutcomeInvalid,
			Reason: fmt.Sprintf("no transition %s → %s in flow %q",
				req.Current, req.Requested, flow.Name),
			Suggestions: v.resolver.Reachable(req.Tags, req.Current),
		}
	}

	// 2-3. Пререквизиты ребра, по порядку объявления.
	for _, prereq := range edge.Requires {
		if result, ok := v.checkPrereq(prereq, req); !ok {
			return result
		}
	}

	// Advisory: завершение разблокирует другие tasks.
	if domain.IsTerminalStatus(req.Requested) && len(req.Prereq.UnblockedTaskIDs) > 0 {
		return Result{
			Outcome: OutcomeValidWithAdvisory,
			Advisory: fmt.Sprintf("completing this %s unblocks %d task(s): %s",
				req.ContainerType, len(req.Prereq.UnblockedTaskIDs),
				joinIDs(req.Prereq.UnblockedTaskIDs)),
		}
	}

	return Result{Outcome: OutcomeValid}
}

// checkPrereq проверяет один пререквизит-предикат.
// Возвращает (результат, false) при отказе.
func (v *Validator) checkPrereq(prereq string, req TransitionRequest) (Result, bool) {
	switch prereq {
	case PrereqHasChildren:
		// Tasks — листовой уровень, предикат к ним не применяется.
		if req.ContainerType == domain.ContainerTypeTask {
			return Result{}, true
		}
		if req.Prereq.ChildCount < 1 {
			return Result{
				Outcome: OutcomeInvalid,
				Reason: fmt.Sprintf("cannot enter %q: %s has no children",
					req.Requested, req.ContainerType),
			}, false
		}

	case PrereqDescendantsTerminal:
		if req.ContainerType == domain.ContainerTypeTask {
			return Result{}, true
		}
		if n := req.Prereq.NonTerminalChildren; n != 0 {
			return Result{
				Outcome: OutcomeInvalid,
				Reason: fmt.Sprintf("cannot enter %q: %d descendant(s) not in a terminal status",
					req.Requested, n),
			}, false
		}

	case PrereqSummaryComplete:
		if req.ContainerType != domain.ContainerTypeTask {
			return Result{}, true
		}
		window := v.resolver.Config().SummaryWindow
		if n := req.Prereq.SummaryLength; n < window.Min || n > window.Max {
			return Result{
				Outcome: OutcomeInvalid,
				Reason: fmt.Sprintf("summary length %d is outside the required window %d–%d characters",
					n, window.Min, window.Max),
			}, false
		}

	case PrereqDependenciesResolved:
		if req.ContainerType != domain.ContainerTypeTask {
			return Result{}, true
		}
		if ids := req.Prereq.BlockingTaskIDs; len(ids) > 0 {
			return Result{
				Outcome: OutcomeInvalid,
				Reason: fmt.Sprintf("blocked by %d unresolved task(s): %s",
					len(ids), joinIDs(ids)),
			}, false
		}
	}

	return Result{}, true
}

// joinIDs форматирует список идентификаторов для сообщений.
func joinIDs(ids []uuid.UUID) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strings.Join(strs, ", ")
}
