package workflow

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
)

// defaultValidator — Validator поверх встроенной конфигурации.
func defaultValidator() *Validator {
	return NewValidator(NewResolver(DefaultConfig()))
}

func TestValidateTransition_StructuralReject(t *testing.T) {
	v := defaultValidator()

	// pending → completed: такого ребра в with-review нет.
	result := v.ValidateTransition(TransitionRequest{
		Current:       "pending",
		Requested:     "completed",
		ContainerType: domain.ContainerTypeTask,
		ContainerID:   uuid.New(),
	})

	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "no transition") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}
	// Подсказки — достижимые из pending статусы
	if len(result.Suggestions) == 0 {
		t.Error("expected reachable statuses as suggestions")
	}
	var hasPlanned bool
	for _, s := range result.Suggestions {
		if s == "planned" {
			hasPlanned = true
		}
	}
	if !hasPlanned {
		t.Errorf("expected planned among suggestions, got %v", result.Suggestions)
	}
}

func TestValidateTransition_Valid(t *testing.T) {
	v := defaultValidator()

	// pending → planned: ребро без пререквизитов.
	result := v.ValidateTransition(TransitionRequest{
		Current:       "pending",
		Requested:     "planned",
		ContainerType: domain.ContainerTypeFeature,
		ContainerID:   uuid.New(),
	})

	if result.Outcome != OutcomeValid {
		t.Errorf("expected valid, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_HasChildren(t *testing.T) {
	v := defaultValidator()

	req := TransitionRequest{
		Current:       "planned",
		Requested:     "in-development",
		ContainerType: domain.ContainerTypeFeature,
		ContainerID:   uuid.New(),
	}

	// Feature без потомков не может войти в in-development
	result := v.ValidateTransition(req)
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "no children") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}

	// С потомком — допустимо
	req.Prereq.ChildCount = 1
	result = v.ValidateTransition(req)
	if !result.OK() {
		t.Errorf("expected OK, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_HasChildren_TaskExempt(t *testing.T) {
	v := defaultValidator()

	// Tasks — листовой уровень: пререквизит has_children не применяется.
	result := v.ValidateTransition(TransitionRequest{
		Current:       "planned",
		Requested:     "in-development",
		ContainerType: domain.ContainerTypeTask,
		ContainerID:   uuid.New(),
	})

	if !result.OK() {
		t.Errorf("expected OK for task, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_DescendantsTerminal(t *testing.T) {
	v := defaultValidator()

	req := TransitionRequest{
		Current:       "in-development",
		Requested:     "testing",
		ContainerType: domain.ContainerTypeFeature,
		ContainerID:   uuid.New(),
		Prereq: PrereqContext{
			ChildCount:          3,
			NonTerminalChildren: 2,
		},
	}

	result := v.ValidateTransition(req)
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "2 descendant(s)") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}

	req.Prereq.NonTerminalChildren = 0
	result = v.ValidateTransition(req)
	if !result.OK() {
		t.Errorf("expected OK, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_SummaryWindow(t *testing.T) {
	v := defaultValidator()

	req := TransitionRequest{
		Current:       "code-review",
		Requested:     "completed",
		ContainerType: domain.ContainerTypeTask,
		ContainerID:   uuid.New(),
		Prereq:        PrereqContext{SummaryLength: 120},
	}

	// 120 символов — короче окна 300–500.
	result := v.ValidateTransition(req)
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "summary length 120") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}

	// Слишком длинный summary — тоже отказ
	req.Prereq.SummaryLength = 501
	if result := v.ValidateTransition(req); result.Outcome != OutcomeInvalid {
		t.Errorf("expected invalid for summary above window, got %s", result.Outcome)
	}

	// Границы окна включительны
	for _, n := range []int{300, 500} {
		req.Prereq.SummaryLength = n
		if result := v.ValidateTransition(req); !result.OK() {
			t.Errorf("summary length %d should pass: %s", n, result.Reason)
		}
	}
}

func TestValidateTransition_SummaryWindow_NonTaskExempt(t *testing.T) {
	v := defaultValidator()

	// Для feature окно summary не проверяется.
	result := v.ValidateTransition(TransitionRequest{
		Current:       "code-review",
		Requested:     "completed",
		ContainerType: domain.ContainerTypeFeature,
		ContainerID:   uuid.New(),
		Prereq:        PrereqContext{ChildCount: 1, SummaryLength: 0},
	})

	if !result.OK() {
		t.Errorf("expected OK for feature, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_DependenciesResolved(t *testing.T) {
	v := defaultValidator()

	blocker := uuid.New()
	req := TransitionRequest{
		Current:       "code-review",
		Requested:     "completed",
		ContainerType: domain.ContainerTypeTask,
		ContainerID:   uuid.New(),
		Prereq: PrereqContext{
			SummaryLength:   400,
			BlockingTaskIDs: []uuid.UUID{blocker},
		},
	}

	result := v.ValidateTransition(req)
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "blocked by 1 unresolved task(s)") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}
	if !strings.Contains(result.Reason, blocker.String()) {
		t.Errorf("reason should name the blocking task: %s", result.Reason)
	}

	req.Prereq.BlockingTaskIDs = nil
	result = v.ValidateTransition(req)
	if !result.OK() {
		t.Errorf("expected OK, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_UnblockAdvisory(t *testing.T) {
	v := defaultValidator()

	// Завершение task разблокирует две другие — valid с замечанием.
	result := v.ValidateTransition(TransitionRequest{
		Current:       "code-review",
		Requested:     "completed",
		ContainerType: domain.ContainerTypeTask,
		ContainerID:   uuid.New(),
		Prereq: PrereqContext{
			SummaryLength:    400,
			UnblockedTaskIDs: []uuid.UUID{uuid.New(), uuid.New()},
		},
	})

	if result.Outcome != OutcomeValidWithAdvisory {
		t.Fatalf("expected valid_with_advisory, got %s (%s)", result.Outcome, result.Reason)
	}
	if !strings.Contains(result.Advisory, "unblocks 2 task(s)") {
		t.Errorf("unexpected advisory: %s", result.Advisory)
	}
	if !result.OK() {
		t.Error("advisory outcome should still be OK")
	}
}

func TestValidateTransition_DocsFlowDescendantsTerminal(t *testing.T) {
	v := defaultValidator()

	// Feature с тегом docs идёт по documentation flow; вход в completed
	// и там требует терминальности всех потомков.
	req := TransitionRequest{
		Current:       "in-development",
		Requested:     "completed",
		ContainerType: domain.ContainerTypeFeature,
		ContainerID:   uuid.New(),
		Tags:          []string{"docs"},
		Prereq: PrereqContext{
			ChildCount:          3,
			NonTerminalChildren: 3,
		},
	}

	result := v.ValidateTransition(req)
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "3 descendant(s)") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}

	req.Prereq.NonTerminalChildren = 0
	if result := v.ValidateTransition(req); !result.OK() {
		t.Errorf("expected OK, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_HotfixStartRequiresChildren(t *testing.T) {
	v := defaultValidator()

	// pending → in-development в hotfix flow: feature без потомков
	// не может начать разработку.
	req := TransitionRequest{
		Current:       "pending",
		Requested:     "in-development",
		ContainerType: domain.ContainerTypeFeature,
		ContainerID:   uuid.New(),
		Tags:          []string{"hotfix"},
	}

	result := v.ValidateTransition(req)
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", result.Outcome)
	}
	if !strings.Contains(result.Reason, "no children") {
		t.Errorf("unexpected reason: %s", result.Reason)
	}

	req.Prereq.ChildCount = 1
	if result := v.ValidateTransition(req); !result.OK() {
		t.Errorf("expected OK, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestValidateTransition_CancelAlwaysAllowed(t *testing.T) {
	v := defaultValidator()

	// Отмена не требует пререквизитов ни из одного нетерминального статуса.
	for _, current := range []string{"pending", "planned", "in-development", "testing", "code-review"} {
		result := v.ValidateTransition(TransitionRequest{
			Current:       current,
			Requested:     domain.StatusCancelled,
			ContainerType: domain.ContainerTypeTask,
			ContainerID:   uuid.New(),
		})
		if !result.OK() {
			t.Errorf("cancel from %s should be allowed: %s", current, result.Reason)
		}
	}
}
