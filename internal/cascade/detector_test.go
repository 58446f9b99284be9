package cascade

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/workflow"
)

// --- Fakes ---

type fakeProjects struct {
	byID map[uuid.UUID]*domain.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errors.New("project not found")
	}
	return p, nil
}

type fakeFeatures struct {
	byID      map[uuid.UUID]*domain.Feature
	byProject map[uuid.UUID][]domain.Feature
}

func (f *fakeFeatures) GetByID(_ context.Context, id uuid.UUID) (*domain.Feature, error) {
	ft, ok := f.byID[id]
	if !ok {
		return nil, errors.New("feature not found")
	}
	return ft, nil
}

func (f *fakeFeatures) ListByProjectID(_ context.Context, projectID uuid.UUID) ([]domain.Feature, error) {
	return f.byProject[projectID], nil
}

type fakeTasks struct {
	byID      map[uuid.UUID]*domain.Task
	byFeature map[uuid.UUID][]domain.Task
}

func (f *fakeTasks) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, errors.New("task not found")
	}
	return t, nil
}

func (f *fakeTasks) ListByFeatureID(_ context.Context, featureID uuid.UUID) ([]domain.Task, error) {
	return f.byFeature[featureID], nil
}

// fixture — иерархия project → feature → tasks с заданными статусами.
type fixture struct {
	detector *Detector
	project  *domain.Project
	feature  *domain.Feature
	tasks    []domain.Task
}

// newFixture строит детектор над одной feature с tasks в заданных статусах.
func newFixture(featureStatus string, taskStatuses ...string) *fixture {
	project := &domain.Project{ID: uuid.New(), Name: "atlas", Status: "in-development"}
	feature := &domain.Feature{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Name:      "search",
		Status:    featureStatus,
	}

	tasks := make([]domain.Task, len(taskStatuses))
	taskMap := make(map[uuid.UUID]*domain.Task)
	for i, status := range taskStatuses {
		tasks[i] = domain.Task{
			ID:        uuid.New(),
			FeatureID: feature.ID,
			Name:      "task",
			Status:    status,
		}
		taskMap[tasks[i].ID] = &tasks[i]
	}

	resolver := workflow.NewResolver(workflow.DefaultConfig())
	detector := NewDetector(
		&fakeProjects{byID: map[uuid.UUID]*domain.Project{project.ID: project}},
		&fakeFeatures{
			byID:      map[uuid.UUID]*domain.Feature{feature.ID: feature},
			byProject: map[uuid.UUID][]domain.Feature{project.ID: {*feature}},
		},
		&fakeTasks{byID: taskMap, byFeature: map[uuid.UUID][]domain.Task{feature.ID: tasks}},
		resolver,
	)

	return &fixture{detector: detector, project: project, feature: feature, tasks: tasks}
}

// --- Tests ---

func TestDetect_AllTasksComplete(t *testing.T) {
	fx := newFixture("in-development", "completed", "cancelled")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}

	ev := events[0]
	if ev.Event != domain.CascadeAllTasksComplete {
		t.Errorf("expected all_tasks_complete, got %s", ev.Event)
	}
	if ev.TargetType != domain.ContainerTypeFeature || ev.TargetID != fx.feature.ID {
		t.Errorf("event should target the parent feature, got %s %s", ev.TargetType, ev.TargetID)
	}
	if ev.CurrentStatus != "in-development" || ev.SuggestedStatus != "testing" {
		t.Errorf("expected in-development → testing, got %s → %s",
			ev.CurrentStatus, ev.SuggestedStatus)
	}
	// Ребро in-development → testing помечено automatic
	if !ev.Automatic {
		t.Error("expected automatic suggestion")
	}
	if ev.Reason == "" {
		t.Error("reason should be filled")
	}
}

func TestDetect_NotAllComplete(t *testing.T) {
	// Один потомок ещё в работе — рекомендации нет.
	fx := newFixture("in-development", "completed", "in-development")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
}

func TestDetect_FirstTaskStarted(t *testing.T) {
	// Ровно один потомок покинул стартовый статус.
	fx := newFixture("planned", "in-development", "pending", "pending")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.tasks[1].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}

	ev := events[0]
	if ev.Event != domain.CascadeFirstTaskStarted {
		t.Errorf("expected first_task_started, got %s", ev.Event)
	}
	if ev.SuggestedStatus != "in-development" {
		t.Errorf("expected suggestion in-development, got %s", ev.SuggestedStatus)
	}
}

func TestDetect_SecondStartIsNotFirst(t *testing.T) {
	// Два начавших потомка — событие first_task_started не возникает.
	fx := newFixture("planned", "in-development", "testing", "pending")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
}

func TestDetect_CancelledChildDoesNotCountAsStarted(t *testing.T) {
	fx := newFixture("planned", "cancelled", "pending")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
}

func TestDetect_NoEdgeNoEvent(t *testing.T) {
	// Родитель в pending: из pending нет ребра all_tasks_complete,
	// поэтому даже при завершённых потомках рекомендовать нечего.
	fx := newFixture("pending", "completed")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
}

func TestDetect_FeatureChangeTargetsProject(t *testing.T) {
	// Изменение feature инспектирует родительский project.
	fx := newFixture("completed", "completed")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.feature.ID, domain.ContainerTypeFeature)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}
	ev := events[0]
	if ev.Event != domain.CascadeAllTasksComplete {
		t.Errorf("expected all_tasks_complete, got %s", ev.Event)
	}
	if ev.TargetType != domain.ContainerTypeProject || ev.TargetID != fx.project.ID {
		t.Errorf("event should target the parent project, got %s %s", ev.TargetType, ev.TargetID)
	}
}

func TestDetect_ProjectHasNoParent(t *testing.T) {
	fx := newFixture("in-development", "completed")

	events, err := fx.detector.DetectCascadeEvents(
		context.Background(), fx.project.ID, domain.ContainerTypeProject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("expected nil events for project, got %v", events)
	}
}

func TestDetect_UnknownContainerType(t *testing.T) {
	fx := newFixture("in-development", "completed")

	_, err := fx.detector.DetectCascadeEvents(
		context.Background(), uuid.New(), "epic")
	if err == nil {
		t.Error("expected error for unknown container type")
	}
}

func TestDetect_Idempotent(t *testing.T) {
	// Детекция read-only: повторный вызов возвращает те же события.
	fx := newFixture("in-development", "completed", "completed")
	ctx := context.Background()

	first, err := fx.detector.DetectCascadeEvents(ctx, fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := fx.detector.DetectCascadeEvents(ctx, fx.tasks[0].ID, domain.ContainerTypeTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated detection should be identical:\n%v\n%v", first, second)
	}
}
