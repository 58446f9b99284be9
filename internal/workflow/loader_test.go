package workflow

import (
	"errors"
	"testing"

	"github.com/shaiso/Tracker/internal/domain"
)

// testConfig — минимальная корректная конфигурация для тестов.
func testConfig() *Config {
	return &Config{
		DefaultFlow:   "main",
		SummaryWindow: SummaryWindow{Min: 10, Max: 100},
		Flows: map[string]*Flow{
			"main": {
				Name:      "main",
				AppliesTo: allTypes,
				Initial:   domain.StatusPending,
				Transitions: []Transition{
					{From: "pending", To: "in-development", Event: "start"},
					{From: "in-development", To: "completed", Event: "complete"},
					{From: "pending", To: "cancelled", Event: "cancel"},
					{From: "in-development", To: "cancelled", Event: "cancel"},
				},
			},
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(testConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoFlows(t *testing.T) {
	cfg := &Config{DefaultFlow: "main"}

	err := Validate(cfg)
	if !errors.Is(err, ErrNoFlows) {
		t.Errorf("expected ErrNoFlows, got %v", err)
	}
}

func TestValidate_UnknownDefaultFlow(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultFlow = "nonexistent"

	err := Validate(cfg)
	if !errors.Is(err, ErrNoDefaultFlow) {
		t.Errorf("expected ErrNoDefaultFlow, got %v", err)
	}
}

func TestValidate_SelfLoop(t *testing.T) {
	cfg := testConfig()
	cfg.Flows["main"].Transitions = append(cfg.Flows["main"].Transitions,
		Transition{From: "pending", To: "pending", Event: "noop"})

	err := Validate(cfg)
	if !errors.Is(err, ErrSelfLoop) {
		t.Errorf("expected ErrSelfLoop, got %v", err)
	}
}

func TestValidate_DuplicateTransition(t *testing.T) {
	cfg := testConfig()
	cfg.Flows["main"].Transitions = append(cfg.Flows["main"].Transitions,
		Transition{From: "pending", To: "in-development", Event: "start"})

	err := Validate(cfg)
	if !errors.Is(err, ErrDuplicateTransition) {
		t.Errorf("expected ErrDuplicateTransition, got %v", err)
	}
}

func TestValidate_AmbiguousEvent(t *testing.T) {
	// Две цели по одному событию из одного статуса — неоднозначно.
	cfg := testConfig()
	cfg.Flows["main"].Transitions = append(cfg.Flows["main"].Transitions,
		Transition{From: "pending", To: "completed", Event: "start"})

	err := Validate(cfg)
	if !errors.Is(err, ErrAmbiguousEvent) {
		t.Errorf("expected ErrAmbiguousEvent, got %v", err)
	}
}

func TestValidate_DanglingStatus(t *testing.T) {
	// В blocked можно войти, выхода нет, статус не терминальный.
	cfg := testConfig()
	cfg.Flows["main"].Transitions = append(cfg.Flows["main"].Transitions,
		Transition{From: "pending", To: "blocked", Event: "block"})

	err := Validate(cfg)
	if !errors.Is(err, ErrDanglingStatus) {
		t.Errorf("expected ErrDanglingStatus, got %v", err)
	}
}

func TestValidate_UnknownPrerequisite(t *testing.T) {
	cfg := testConfig()
	cfg.Flows["main"].Transitions[1].Requires = []string{"moon_phase_correct"}

	err := Validate(cfg)
	if !errors.Is(err, ErrUnknownPrerequisite) {
		t.Errorf("expected ErrUnknownPrerequisite, got %v", err)
	}
}

func TestValidate_UnknownMappingFlow(t *testing.T) {
	cfg := testConfig()
	cfg.FlowMapping = []MappingRule{{Tags: []string{"x"}, Flow: "ghost"}}

	err := Validate(cfg)
	if !errors.Is(err, ErrUnknownMappingFlow) {
		t.Errorf("expected ErrUnknownMappingFlow, got %v", err)
	}
}

func TestValidate_InvalidSummaryWindow(t *testing.T) {
	cfg := testConfig()
	cfg.SummaryWindow = SummaryWindow{Min: 500, Max: 300}

	err := Validate(cfg)
	if !errors.Is(err, ErrInvalidSummaryWindow) {
		t.Errorf("expected ErrInvalidSummaryWindow, got %v", err)
	}
}

func TestValidate_ConfigErrorContext(t *testing.T) {
	cfg := testConfig()
	cfg.Flows["main"].Transitions = append(cfg.Flows["main"].Transitions,
		Transition{From: "pending", To: "pending"})

	err := Validate(cfg)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Flow != "main" {
		t.Errorf("expected flow main, got %q", cfgErr.Flow)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParse_ValidDocument(t *testing.T) {
	data := []byte(`{
		"default_flow": "simple",
		"summary_window": {"min": 300, "max": 500},
		"flows": {
			"simple": {
				"applies_to": ["project", "feature", "task"],
				"initial": "pending",
				"transitions": [
					{"from": "pending", "to": "completed", "event": "complete",
					 "requires": ["summary_complete"]},
					{"from": "pending", "to": "cancelled", "event": "cancel"}
				]
			}
		}
	}`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Имя flow заполняется при загрузке
	if cfg.Flows["simple"].Name != "simple" {
		t.Errorf("flow name not filled, got %q", cfg.Flows["simple"].Name)
	}
	if cfg.SummaryWindow.Min != 300 || cfg.SummaryWindow.Max != 500 {
		t.Errorf("unexpected summary window: %+v", cfg.SummaryWindow)
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultFlow == "" {
		t.Error("default config should have a default flow")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultConfig_PrerequisitesByTargetClass(t *testing.T) {
	cfg := DefaultConfig()

	requires := func(tr Transition, prereq string) bool {
		for _, p := range tr.Requires {
			if p == prereq {
				return true
			}
		}
		return false
	}

	// Пререквизиты привязаны к классу целевого статуса и обязательны
	// в каждом flow: вход в completed требует терминальности потомков,
	// вход в in-development — хотя бы одного потомка.
	for name, flow := range cfg.Flows {
		for _, tr := range flow.Transitions {
			switch tr.To {
			case domain.StatusCompleted:
				if !requires(tr, PrereqDescendantsTerminal) {
					t.Errorf("flow %s: %s → completed lacks %s", name, tr.From, PrereqDescendantsTerminal)
				}
			case "in-development":
				if !requires(tr, PrereqHasChildren) {
					t.Errorf("flow %s: %s → in-development lacks %s", name, tr.From, PrereqHasChildren)
				}
			}
		}
	}
}

func TestDefaultConfig_CancellableFromNonTerminal(t *testing.T) {
	cfg := DefaultConfig()

	for name, flow := range cfg.Flows {
		for status := range flow.Statuses() {
			if domain.IsTerminalStatus(status) {
				continue
			}
			var found bool
			for _, tr := range flow.outgoing(status) {
				if tr.To == domain.StatusCancelled {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("flow %s: status %q has no cancel edge", name, status)
			}
		}
	}
}
