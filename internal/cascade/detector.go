package cascade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/telemetry"
	"github.com/shaiso/Tracker/internal/workflow"
)

// ProjectRepo — порт чтения projects.
type ProjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
}

// FeatureRepo — порт чтения features.
type FeatureRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Feature, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Feature, error)
}

// TaskRepo — порт чтения tasks.
type TaskRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByFeatureID(ctx context.Context, featureID uuid.UUID) ([]domain.Task, error)
}

// Detector обнаруживает каскадные рекомендации после изменения
// статуса или зависимости.
//
// Detector строго read-only: он предлагает переходы, но никогда
// их не применяет — применение всегда отдельный явный вызов через
// Resolver+Validator. Детекция идемпотентна и детерминирована:
// счётчики потомков снимаются одним снимком на вызов, без
// повторных чтений в середине вычисления.
type Detector struct {
	projects ProjectRepo
	features FeatureRepo
	tasks    TaskRepo
	resolver *workflow.Resolver
}

// NewDetector создаёт Detector.
func NewDetector(projects ProjectRepo, features FeatureRepo, tasks TaskRepo, resolver *workflow.Resolver) *Detector {
	return &Detector{
		projects: projects,
		features: features,
		tasks:    tasks,
		resolver: resolver,
	}
}

// childSnapshot — один консистентный снимок прямых потомков родителя.
type childSnapshot struct {
	total       int // всего потомков
	nonTerminal int // потомков в нетерминальном статусе
	started     int // потомков, покинувших стартовый статус (и не отменённых)
}

// DetectCascadeEvents инспектирует родителя изменившегося контейнера
// и возвращает рекомендации переходов.
//
// Для task проверяется родительская feature, для feature — родительский
// project. Для project родителя нет — событий не бывает.
func (d *Detector) DetectCascadeEvents(ctx context.Context, id uuid.UUID, containerType domain.ContainerType) ([]domain.CascadeEvent, error) {
	var parent domain.Container
	var snapshot childSnapshot

	switch containerType {
	case domain.ContainerTypeTask:
		task, err := d.tasks.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get task: %w", err)
		}

		feature, err := d.features.GetByID(ctx, task.FeatureID)
		if err != nil {
			return nil, fmt.Errorf("get parent feature: %w", err)
		}

		siblings, err := d.tasks.ListByFeatureID(ctx, feature.ID)
		if err != nil {
			return nil, fmt.Errorf("list feature tasks: %w", err)
		}

		parent = feature.AsContainer()
		for i := range siblings {
			d.count(&snapshot, siblings[i].Status, siblings[i].Tags)
		}

	case domain.ContainerTypeFeature:
		feature, err := d.features.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get feature: %w", err)
		}

		project, err := d.projects.GetByID(ctx, feature.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get parent project: %w", err)
		}

		siblings, err := d.features.ListByProjectID(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("list project features: %w", err)
		}

		parent = project.AsContainer()
		for i := range siblings {
			d.count(&snapshot, siblings[i].Status, siblings[i].Tags)
		}

	case domain.ContainerTypeProject:
		// У project нет родителя — каскадировать некуда.
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown container type %q", containerType)
	}

	events := d.eventsFor(parent, snapshot)
	telemetry.CascadeEventsDetected.Add(float64(len(events)))

	return events, nil
}

// count учитывает одного потомка в снимке.
func (d *Detector) count(s *childSnapshot, status string, tags []string) {
	s.total++

	if !domain.IsTerminalStatus(status) {
		s.nonTerminal++
	}

	initial := d.resolver.InitialStatus(tags)
	if status != initial && status != domain.StatusCancelled {
		s.started++
	}
}

// eventsFor вычисляет события для родителя по снимку потомков.
//
// Событие возникает только если активный flow родителя имеет
// исходящее ребро с соответствующей меткой из текущего статуса —
// иначе рекомендовать нечего.
func (d *Detector) eventsFor(parent domain.Container, s childSnapshot) []domain.CascadeEvent {
	var events []domain.CascadeEvent

	// Все потомки завершены → родителю предлагается следующий этап.
	if s.total > 0 && s.nonTerminal == 0 {
		if ev, ok := d.suggest(parent, domain.CascadeAllTasksComplete,
			fmt.Sprintf("all %d children of %s %q are in a terminal status",
				s.total, parent.Type, parent.Name)); ok {
			events = append(events, ev)
		}
	}

	// Ровно один потомок начал работу → родителю предлагается старт.
	if s.started == 1 {
		if ev, ok := d.suggest(parent, domain.CascadeFirstTaskStarted,
			fmt.Sprintf("first child of %s %q has started", parent.Type, parent.Name)); ok {
			events = append(events, ev)
		}
	}

	return events
}

// suggest строит событие, если flow родителя допускает переход по метке.
func (d *Detector) suggest(parent domain.Container, event domain.CascadeEventName, reason string) (domain.CascadeEvent, bool) {
	next, err := d.resolver.Next(parent.Tags, parent.Status, string(event))
	if err != nil || !next.Found {
		return domain.CascadeEvent{}, false
	}

	return domain.CascadeEvent{
		Event:           event,
		TargetType:      parent.Type,
		TargetID:        parent.ID,
		TargetName:      parent.Name,
		CurrentStatus:   parent.Status,
		SuggestedStatus: next.Target,
		Flow:            next.Flow,
		Automatic:       next.Automatic,
		Reason:          reason,
	}, true
}
