package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/lockmgr"
	"github.com/shaiso/Tracker/internal/mq"
	"github.com/shaiso/Tracker/internal/telemetry"
)

// taskRef строит lock-идентификатор task.
func taskRef(id uuid.UUID) lockmgr.Ref {
	return lockmgr.Ref{Type: domain.ContainerTypeTask, ID: id}
}

// CreateDependency создаёт ребро зависимости между двумя tasks.
//
// Обе конечные tasks должны существовать. Проверка цикла и вставка
// выполняются под парной блокировкой обеих tasks: без неё две
// встречные вставки прошли бы каждая свою проверку и совместно
// замкнули цикл.
func (s *Service) CreateDependency(ctx context.Context, from, to uuid.UUID, depType domain.DependencyType) (*domain.Dependency, error) {
	if _, err := s.tasks.GetByID(ctx, from); err != nil {
		return nil, fmt.Errorf("from task %s: %w", from, err)
	}
	if _, err := s.tasks.GetByID(ctx, to); err != nil {
		return nil, fmt.Errorf("to task %s: %w", to, err)
	}

	var dep *domain.Dependency
	err := s.locks.WithPair(ctx, "create_dependency", taskRef(from), taskRef(to), func(ctx context.Context) error {
		created, err := s.graph.Create(ctx, from, to, depType)
		if err != nil {
			return err
		}
		dep = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.WithDependencyID(s.logger, dep.ID.String()).Info("dependency created",
		"from_task_id", dep.FromTaskID,
		"to_task_id", dep.ToTaskID,
		"type", dep.Type,
	)

	s.publishDependencyChanged(ctx, mq.DependencyChangedPayload{
		DependencyID: dep.ID,
		FromTaskID:   dep.FromTaskID,
		ToTaskID:     dep.ToTaskID,
		Type:         string(dep.Type),
		Action:       mq.DependencyActionCreated,
	})

	return dep, nil
}

// DeleteDependency удаляет ребро по id.
func (s *Service) DeleteDependency(ctx context.Context, id uuid.UUID) error {
	dep, err := s.graph.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.locks.WithPair(ctx, "delete_dependency", taskRef(dep.FromTaskID), taskRef(dep.ToTaskID), func(ctx context.Context) error {
		return s.graph.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	telemetry.WithDependencyID(s.logger, dep.ID.String()).Info("dependency deleted",
		"from_task_id", dep.FromTaskID,
		"to_task_id", dep.ToTaskID,
		"type", dep.Type,
	)

	s.publishDependencyChanged(ctx, mq.DependencyChangedPayload{
		DependencyID: dep.ID,
		FromTaskID:   dep.FromTaskID,
		ToTaskID:     dep.ToTaskID,
		Type:         string(dep.Type),
		Action:       mq.DependencyActionDeleted,
	})

	return nil
}

// GetDependency возвращает ребро по id.
func (s *Service) GetDependency(ctx context.Context, id uuid.UUID) (*domain.Dependency, error) {
	return s.graph.GetByID(ctx, id)
}

// TaskDependencies возвращает рёбра task в заданном направлении.
func (s *Service) TaskDependencies(ctx context.Context, taskID uuid.UUID, direction domain.Direction) ([]domain.Dependency, error) {
	return s.graph.FindByTaskID(ctx, taskID, direction)
}

// WouldCreateCycle проверяет, замкнуло бы ребро from → to цикл
// в подграфе BLOCKS. Read-only preview; сама вставка повторяет
// проверку под блокировкой.
func (s *Service) WouldCreateCycle(ctx context.Context, from, to uuid.UUID) (bool, error) {
	return s.graph.HasCyclicDependency(ctx, from, to)
}

// publishDependencyChanged публикует событие изменения графа.
// Мутация уже применена: ошибка публикации логируется, но не откатывает её.
func (s *Service) publishDependencyChanged(ctx context.Context, payload mq.DependencyChangedPayload) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishDependencyChanged(ctx, payload); err != nil {
		telemetry.WithDependencyID(s.logger, payload.DependencyID.String()).
			Warn("failed to publish dependency change", "action", payload.Action, "error", err)
	}
}
