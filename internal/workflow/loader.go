package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shaiso/Tracker/internal/domain"
)

// Load читает и валидирует конфигурацию workflow из JSON файла.
// Если path пуст, возвращает встроенную конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow config: %w", err)
	}

	return Parse(data)
}

// Parse парсит и валидирует конфигурацию workflow из JSON.
//
// Конфигурация валидируется полностью на этапе загрузки:
// некорректный документ приводит к ошибке здесь, а не в момент
// перехода (fail fast).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse workflow config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate выполняет полную валидацию конфигурации.
//
// Проверяет:
//   - Наличие flows и корректность default_flow
//   - Отсутствие self-loop рёбер
//   - Отсутствие дубликатов (from, to, event)
//   - Однозначность событий (из статуса не выходит двух рёбер
//     с одной меткой события)
//   - Отсутствие "висячих" нетерминальных статусов
//   - Известность всех идентификаторов пререквизитов
//   - Корректность правил flow_mapping
//   - Корректность окна summary
func Validate(cfg *Config) error {
	if len(cfg.Flows) == 0 {
		return NewConfigError("", "flows", "config has no flows", ErrNoFlows)
	}

	if cfg.DefaultFlow == "" || cfg.Flows[cfg.DefaultFlow] == nil {
		return NewConfigError("", "default_flow",
			fmt.Sprintf("default flow %q is missing or unknown", cfg.DefaultFlow),
			ErrNoDefaultFlow)
	}

	if cfg.SummaryWindow.Min < 0 || cfg.SummaryWindow.Max < cfg.SummaryWindow.Min {
		return NewConfigError("", "summary_window",
			fmt.Sprintf("invalid summary window [%d, %d]",
				cfg.SummaryWindow.Min, cfg.SummaryWindow.Max),
			ErrInvalidSummaryWindow)
	}

	for name, flow := range cfg.Flows {
		flow.Name = name
		if err := validateFlow(flow); err != nil {
			return err
		}
	}

	for i, rule := range cfg.FlowMapping {
		if cfg.Flows[rule.Flow] == nil {
			return NewConfigError("", "flow_mapping",
				fmt.Sprintf("rule %d references unknown flow %q", i, rule.Flow),
				ErrUnknownMappingFlow)
		}
	}

	return nil
}

// validateFlow валидирует один flow.
func validateFlow(flow *Flow) error {
	if len(flow.Transitions) == 0 {
		return NewConfigError(flow.Name, "transitions",
			"flow has no transitions", ErrEmptyFlow)
	}

	seen := make(map[[3]string]bool)   // (from, to, event) → рёбра
	events := make(map[[2]string]bool) // (from, event) → метки

	for _, tr := range flow.Transitions {
		if tr.From == tr.To {
			return NewConfigError(flow.Name, "transitions",
				fmt.Sprintf("self-loop on status %q", tr.From), ErrSelfLoop)
		}

		edge := [3]string{tr.From, tr.To, tr.Event}
		if seen[edge] {
			return NewConfigError(flow.Name, "transitions",
				fmt.Sprintf("duplicate transition %s → %s", tr.From, tr.To),
				ErrDuplicateTransition)
		}
		seen[edge] = true

		if tr.Event != "" {
			ev := [2]string{tr.From, tr.Event}
			if events[ev] {
				return NewConfigError(flow.Name, "transitions",
					fmt.Sprintf("event %q is ambiguous for status %q", tr.Event, tr.From),
					ErrAmbiguousEvent)
			}
			events[ev] = true
		}

		for _, p := range tr.Requires {
			if !knownPrereqs[p] {
				return NewConfigError(flow.Name, "requires",
					fmt.Sprintf("unknown prerequisite %q on %s → %s", p, tr.From, tr.To),
					ErrUnknownPrerequisite)
			}
		}
	}

	// Висячие статусы: в статус можно войти, выхода нет, статус не терминальный.
	for status := range flow.Statuses() {
		if domain.IsTerminalStatus(status) {
			continue
		}
		if len(flow.outgoing(status)) == 0 {
			return NewConfigError(flow.Name, "transitions",
				fmt.Sprintf("status %q has no outgoing transitions and is not terminal", status),
				ErrDanglingStatus)
		}
	}

	return nil
}

// allTypes — все уровни иерархии; используется flows по умолчанию.
var allTypes = []domain.ContainerType{
	domain.ContainerTypeProject,
	domain.ContainerTypeFeature,
	domain.ContainerTypeTask,
}

// DefaultConfig возвращает встроенную конфигурацию по умолчанию.
//
// Четыре flow, различающиеся только набором стадий:
//   - with-review      — полный цикл с code-review (flow по умолчанию)
//   - hotfix           — кратчайший путь pending → in-development → completed
//   - rapid-prototype  — без code-review
//   - documentation    — как hotfix, для документационных работ
//
// Отмена (cancelled) разрешена из любого нетерминального статуса.
func DefaultConfig() *Config {
	cfg := &Config{
		DefaultFlow:   "with-review",
		SummaryWindow: SummaryWindow{Min: 300, Max: 500},
		Flows: map[string]*Flow{
			"with-review": {
				AppliesTo: allTypes,
				Initial:   domain.StatusPending,
				Transitions: withCancellation([]Transition{
					{From: "pending", To: "planned", Event: "plan"},
					{From: "planned", To: "in-development", Event: "start",
						Requires: []string{PrereqHasChildren}},
					{From: "in-development", To: "testing", Event: string(domain.CascadeAllTasksComplete),
						Requires: []string{PrereqDescendantsTerminal}, Automatic: true},
					{From: "planned", To: "in-development", Event: string(domain.CascadeFirstTaskStarted),
						Requires: []string{PrereqHasChildren}, Automatic: true},
					{From: "testing", To: "code-review", Event: "review"},
					{From: "code-review", To: "in-development", Event: "rework",
						Requires: []string{PrereqHasChildren}},
					{From: "code-review", To: "completed", Event: "complete",
						Requires: []string{PrereqDescendantsTerminal, PrereqSummaryComplete, PrereqDependenciesResolved}},
				}),
			},
			"hotfix": {
				AppliesTo: allTypes,
				Initial:   domain.StatusPending,
				Transitions: withCancellation([]Transition{
					{From: "pending", To: "in-development", Event: "start",
						Requires: []string{PrereqHasChildren}},
					{From: "in-development", To: "completed", Event: "complete",
						Requires: []string{PrereqDescendantsTerminal, PrereqSummaryComplete, PrereqDependenciesResolved}},
				}),
			},
			"rapid-prototype": {
				AppliesTo: allTypes,
				Initial:   domain.StatusPending,
				Transitions: withCancellation([]Transition{
					{From: "pending", To: "in-development", Event: "start",
						Requires: []string{PrereqHasChildren}},
					{From: "in-development", To: "testing", Event: string(domain.CascadeAllTasksComplete),
						Requires: []string{PrereqDescendantsTerminal}, Automatic: true},
					{From: "testing", To: "in-development", Event: "rework",
						Requires: []string{PrereqHasChildren}},
					{From: "testing", To: "completed", Event: "complete",
						Requires: []string{PrereqDescendantsTerminal, PrereqSummaryComplete, PrereqDependenciesResolved}},
				}),
			},
			"documentation": {
				AppliesTo: allTypes,
				Initial:   domain.StatusPending,
				Transitions: withCancellation([]Transition{
					{From: "pending", To: "in-development", Event: "start",
						Requires: []string{PrereqHasChildren}},
					{From: "in-development", To: "completed", Event: "complete",
						Requires: []string{PrereqDescendantsTerminal, PrereqSummaryComplete, PrereqDependenciesResolved}},
				}),
			},
		},
		FlowMapping: []MappingRule{
			{Tags: []string{"hotfix", "urgent"}, Flow: "hotfix"},
			{Tags: []string{"prototype", "experiment"}, Flow: "rapid-prototype"},
			{Tags: []string{"docs", "documentation"}, Flow: "documentation"},
		},
	}

	for name, flow := range cfg.Flows {
		flow.Name = name
	}

	return cfg
}

// withCancellation дополняет переходы рёбрами в cancelled
// из каждого нетерминального статуса.
func withCancellation(transitions []Transition) []Transition {
	statuses := make(map[string]bool)
	for _, tr := range transitions {
		statuses[tr.From] = true
		statuses[tr.To] = true
	}

	// Стабильный порядок добавления: сначала объявленные from, потом to.
	var ordered []string
	added := make(map[string]bool)
	for _, tr := range transitions {
		for _, s := range []string{tr.From, tr.To} {
			if !added[s] && !domain.IsTerminalStatus(s) {
				ordered = append(ordered, s)
				added[s] = true
			}
		}
	}

	for _, s := range ordered {
		transitions = append(transitions, Transition{
			From:  s,
			To:    domain.StatusCancelled,
			Event: "cancel",
		})
	}

	return transitions
}
