package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/cascade"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/mq"
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

func (f *fakeFeatures) ListUpdatedSince(_ context.Context, _ time.Time, _ int) ([]domain.Feature, error) {
	return nil, nil
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

func (f *fakeTasks) ListUpdatedSince(_ context.Context, _ time.Time, _ int) ([]domain.Task, error) {
	return nil, nil
}

// newTestWatcher строит Watcher без MQ над одной feature с tasks.
func newTestWatcher() (*Watcher, *domain.Task) {
	project := &domain.Project{ID: uuid.New(), Name: "atlas", Status: "in-development"}
	feature := &domain.Feature{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Name:      "search",
		Status:    "in-development",
	}
	task := &domain.Task{
		ID:        uuid.New(),
		FeatureID: feature.ID,
		Name:      "indexing",
		Status:    domain.StatusCompleted,
	}

	projects := &fakeProjects{byID: map[uuid.UUID]*domain.Project{project.ID: project}}
	features := &fakeFeatures{
		byID:      map[uuid.UUID]*domain.Feature{feature.ID: feature},
		byProject: map[uuid.UUID][]domain.Feature{project.ID: {*feature}},
	}
	tasks := &fakeTasks{
		byID:      map[uuid.UUID]*domain.Task{task.ID: task},
		byFeature: map[uuid.UUID][]domain.Task{feature.ID: {*task}},
	}

	resolver := workflow.NewResolver(workflow.DefaultConfig())
	w := New(Config{
		Detector: cascade.NewDetector(projects, features, tasks, resolver),
		Tasks:    tasks,
		Features: features,
	})

	return w, task
}

// delivery оборачивает payload в Delivery, как это делает consumer.
func delivery(msgType mq.MessageType, payload any) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			ID:        uuid.New().String(),
			Type:      msgType,
			Payload:   payload,
			Timestamp: time.Now(),
		},
	}
}

// --- Tests ---

func TestHandleContainerChanged(t *testing.T) {
	w, task := newTestWatcher()

	err := w.handleContainerChanged(context.Background(), delivery(
		mq.MessageTypeStatusChanged,
		mq.StatusChangedPayload{
			ContainerType: "task",
			ContainerID:   task.ID,
			From:          "code-review",
			To:            "completed",
			Flow:          "with-review",
		},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleContainerChanged_UnknownType(t *testing.T) {
	w, task := newTestWatcher()

	// Некорректный тип не станет корректным при retry — сообщение
	// подтверждается (nil), а не возвращается в очередь.
	err := w.handleContainerChanged(context.Background(), delivery(
		mq.MessageTypeStatusChanged,
		mq.StatusChangedPayload{
			ContainerType: "epic",
			ContainerID:   task.ID,
		},
	))
	if err != nil {
		t.Errorf("unknown type should not be requeued, got %v", err)
	}
}

func TestHandleContainerChanged_MalformedPayload(t *testing.T) {
	w, _ := newTestWatcher()

	err := w.handleContainerChanged(context.Background(), delivery(
		mq.MessageTypeStatusChanged,
		map[string]any{"container_id": "not-a-uuid"},
	))
	if err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestHandleDependencyChanged(t *testing.T) {
	w, task := newTestWatcher()

	// Детекция идёт по обеим конечным tasks; несуществующая вторая
	// task логируется, но не роняет обработку.
	err := w.handleDependencyChanged(context.Background(), delivery(
		mq.MessageTypeDependencyChanged,
		mq.DependencyChangedPayload{
			DependencyID: uuid.New(),
			FromTaskID:   task.ID,
			ToTaskID:     uuid.New(),
			Type:         "BLOCKS",
			Action:       mq.DependencyActionDeleted,
		},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
