package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
)

// CreateProject создаёт project в стартовом статусе активного flow.
func (s *Service) CreateProject(ctx context.Context, name string, tags []string) (*domain.Project, error) {
	now := time.Now()
	project := &domain.Project{
		ID:        uuid.New(),
		Name:      name,
		Status:    s.resolver.InitialStatus(tags),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"project_id", project.ID,
		"name", project.Name,
		"status", project.Status,
		"flow", s.resolver.FlowFor(tags).Name,
	)

	return project, nil
}

// CreateFeature создаёт feature внутри существующего project.
func (s *Service) CreateFeature(ctx context.Context, projectID uuid.UUID, name string, tags []string) (*domain.Feature, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("parent project %s: %w", projectID, err)
	}

	now := time.Now()
	feature := &domain.Feature{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		Status:    s.resolver.InitialStatus(tags),
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.features.Create(ctx, feature); err != nil {
		return nil, err
	}

	s.logger.Info("feature created",
		"feature_id", feature.ID,
		"project_id", projectID,
		"name", feature.Name,
		"status", feature.Status,
	)

	return feature, nil
}

// CreateTask создаёт task внутри существующей feature.
func (s *Service) CreateTask(ctx context.Context, featureID uuid.UUID, name, summary string, tags []string) (*domain.Task, error) {
	if _, err := s.features.GetByID(ctx, featureID); err != nil {
		return nil, fmt.Errorf("parent feature %s: %w", featureID, err)
	}

	now := time.Now()
	task := &domain.Task{
		ID:        uuid.New(),
		FeatureID: featureID,
		Name:      name,
		Status:    s.resolver.InitialStatus(tags),
		Summary:   summary,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"feature_id", featureID,
		"name", task.Name,
		"status", task.Status,
	)

	return task, nil
}

// UpdateTask обновляет изменяемые поля task (имя, summary, теги).
// Статус этим путём не меняется — только через TransitionStatus.
func (s *Service) UpdateTask(ctx context.Context, id uuid.UUID, name, summary string, tags []string) (*domain.Task, error) {
	var updated *domain.Task

	err := s.locks.WithLock(ctx, "update_task", taskRef(id), func(ctx context.Context) error {
		task, err := s.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		task.Name = name
		task.Summary = summary
		task.Tags = tags

		if err := s.tasks.Update(ctx, task); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTask удаляет task вместе со всеми её рёбрами зависимостей
// (в обе стороны). Каскадное удаление рёбер идёт первым: осиротевшие
// рёбра иначе продолжили бы блокировать другие tasks.
func (s *Service) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return s.locks.WithLock(ctx, "delete_task", taskRef(id), func(ctx context.Context) error {
		removed, err := s.graph.DeleteByTaskID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete task dependencies: %w", err)
		}

		if err := s.tasks.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Info("task deleted",
			"task_id", id,
			"dependencies_removed", removed,
		)

		return nil
	})
}

// GetProject возвращает project по id.
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// GetFeature возвращает feature по id.
func (s *Service) GetFeature(ctx context.Context, id uuid.UUID) (*domain.Feature, error) {
	return s.features.GetByID(ctx, id)
}

// GetTask возвращает task по id.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// ListProjects возвращает projects (не больше limit).
func (s *Service) ListProjects(ctx context.Context, limit int) ([]domain.Project, error) {
	return s.projects.List(ctx, limit)
}

// ListFeatures возвращает features project.
func (s *Service) ListFeatures(ctx context.Context, projectID uuid.UUID) ([]domain.Feature, error) {
	return s.features.ListByProjectID(ctx, projectID)
}

// ListTasks возвращает tasks feature.
func (s *Service) ListTasks(ctx context.Context, featureID uuid.UUID) ([]domain.Task, error) {
	return s.tasks.ListByFeatureID(ctx, featureID)
}
