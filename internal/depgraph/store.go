package depgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/telemetry"
)

// maxTraversalDepth ограничивает глубину обхода графа,
// защищая от деградировавших данных и чрезмерной стоимости запроса.
// При достижении предела обход завершается ошибкой: недоказанная
// ацикличность трактуется как конфликт, а не как разрешение.
const maxTraversalDepth = 100

// DependencyRepo — порт персистентности рёбер зависимостей.
// Реализация — internal/repo (Postgres); ошибки хранилища
// пробрасываются без изменений.
type DependencyRepo interface {
	Create(ctx context.Context, dep *domain.Dependency) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dependency, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTaskID(ctx context.Context, taskID uuid.UUID) (int, error)
	ListByFromTaskID(ctx context.Context, taskID uuid.UUID) ([]domain.Dependency, error)
	ListByToTaskID(ctx context.Context, taskID uuid.UUID) ([]domain.Dependency, error)
	Exists(ctx context.Context, from, to uuid.UUID, depType domain.DependencyType) (bool, error)
}

// Store владеет рёбрами зависимостей между tasks.
//
// Все мутации графа проходят через Create/Delete/DeleteByTask —
// другого пути записи рёбер в системе нет.
//
// Create выполняет check-then-insert (проверка цикла, затем вставка)
// и обязан вызываться под одним lock scope, покрывающим обе конечные
// tasks (см. internal/tracker): проверка вне блокировки — это гонка,
// при которой две встречные вставки совместно замыкают цикл.
type Store struct {
	deps DependencyRepo
}

// NewStore создаёт Store поверх репозитория рёбер.
func NewStore(deps DependencyRepo) *Store {
	return &Store{deps: deps}
}

// Create создаёт ребро зависимости.
//
// Отклоняет:
//   - self-dependency (from == to)
//   - дубликат (from, to, type)
//   - ребро, замыкающее цикл в каноничном подграфе BLOCKS
//     (IS_BLOCKED_BY нормализуется в обратный BLOCKS до проверки;
//     RELATES_TO симметричен и из анализа циклов исключён)
//
// Возвращает созданное ребро с сгенерированным id и временем создания.
func (s *Store) Create(ctx context.Context, from, to uuid.UUID, depType domain.DependencyType) (*domain.Dependency, error) {
	if !depType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDependencyType, depType)
	}

	if from == to {
		return nil, ErrSelfDependency
	}

	// Каноничная форма хранения: только BLOCKS и RELATES_TO.
	dep := domain.Dependency{
		ID:         uuid.New(),
		FromTaskID: from,
		ToTaskID:   to,
		Type:       depType,
		CreatedAt:  time.Now(),
	}.Normalize()

	exists, err := s.deps.Exists(ctx, dep.FromTaskID, dep.ToTaskID, dep.Type)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s → %s (%s)",
			ErrDuplicateDependency, dep.FromTaskID, dep.ToTaskID, dep.Type)
	}

	if dep.Type == domain.DependencyBlocks {
		path, err := s.findPath(ctx, dep.ToTaskID, dep.FromTaskID)
		if err != nil {
			return nil, err
		}
		if path != nil {
			telemetry.CyclesRejected.Inc()
			// Цикл целиком: from → to → ... → from.
			cycle := append([]uuid.UUID{dep.FromTaskID}, path...)
			return nil, &CycleError{From: dep.FromTaskID, To: dep.ToTaskID, Path: cycle}
		}
	}

	if err := s.deps.Create(ctx, &dep); err != nil {
		return nil, fmt.Errorf("insert dependency: %w", err)
	}

	telemetry.DependenciesCreated.Inc()
	return &dep, nil
}

// HasCyclicDependency проверяет, замкнуло бы ребро from → to цикл
// в каноничном подграфе BLOCKS. Выполняет поиск достижимости от
// кандидата-приёмника обратно к кандидату-источнику: найденный путь
// означает, что новое ребро закрыло бы цикл.
func (s *Store) HasCyclicDependency(ctx context.Context, from, to uuid.UUID) (bool, error) {
	if from == to {
		return true, nil
	}

	path, err := s.findPath(ctx, to, from)
	if err != nil {
		return false, err
	}
	return path != nil, nil
}

// findPath выполняет BFS по рёбрам BLOCKS от start до goal.
// Возвращает путь start → ... → goal или nil, если пути нет.
// Если фронт обхода не исчерпан к maxTraversalDepth, возвращает
// ErrTraversalDepthExceeded.
func (s *Store) findPath(ctx context.Context, start, goal uuid.UUID) ([]uuid.UUID, error) {
	parents := map[uuid.UUID]uuid.UUID{start: start}
	queue := []uuid.UUID{start}
	depth := 0

	for len(queue) > 0 {
		if depth >= maxTraversalDepth {
			return nil, fmt.Errorf("%w: depth %d reached from %s",
				ErrTraversalDepthExceeded, maxTraversalDepth, start)
		}

		var next []uuid.UUID

		for _, node := range queue {
			edges, err := s.deps.ListByFromTaskID(ctx, node)
			if err != nil {
				return nil, fmt.Errorf("traverse dependencies of %s: %w", node, err)
			}

			for _, edge := range edges {
				if edge.Type != domain.DependencyBlocks {
					continue
				}
				if _, seen := parents[edge.ToTaskID]; seen {
					continue
				}
				parents[edge.ToTaskID] = node

				if edge.ToTaskID == goal {
					return reconstructPath(parents, start, goal), nil
				}
				next = append(next, edge.ToTaskID)
			}
		}

		queue = next
		depth++
	}

	return nil, nil
}

// reconstructPath восстанавливает путь start → ... → goal по карте родителей.
func reconstructPath(parents map[uuid.UUID]uuid.UUID, start, goal uuid.UUID) []uuid.UUID {
	var reversed []uuid.UUID
	for node := goal; node != start; node = parents[node] {
		reversed = append(reversed, node)
	}
	reversed = append(reversed, start)

	path := make([]uuid.UUID, len(reversed))
	for i, node := range reversed {
		path[len(reversed)-1-i] = node
	}
	return path
}

// Delete удаляет ребро по id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deps.Delete(ctx, id)
}

// DeleteByTaskID каскадно удаляет все рёбра task (в обе стороны).
// Используется при принудительном удалении task.
// Возвращает число удалённых рёбер.
func (s *Store) DeleteByTaskID(ctx context.Context, taskID uuid.UUID) (int, error) {
	return s.deps.DeleteByTaskID(ctx, taskID)
}

// GetByID возвращает ребро по id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dependency, error) {
	return s.deps.GetByID(ctx, id)
}

// FindByTaskID возвращает рёбра task в заданном направлении.
func (s *Store) FindByTaskID(ctx context.Context, taskID uuid.UUID, direction domain.Direction) ([]domain.Dependency, error) {
	switch direction {
	case domain.DirectionOutgoing:
		return s.deps.ListByFromTaskID(ctx, taskID)

	case domain.DirectionIncoming:
		return s.deps.ListByToTaskID(ctx, taskID)

	case domain.DirectionAll:
		outgoing, err := s.deps.ListByFromTaskID(ctx, taskID)
		if err != nil {
			return nil, err
		}
		incoming, err := s.deps.ListByToTaskID(ctx, taskID)
		if err != nil {
			return nil, err
		}
		return append(outgoing, incoming...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
}

// BlockingTasks возвращает источники входящих BLOCKS рёбер task.
// Используется пререквизитом dependencies_resolved.
func (s *Store) BlockingTasks(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	incoming, err := s.deps.ListByToTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var blocking []uuid.UUID
	for _, edge := range incoming {
		if edge.Type == domain.DependencyBlocks {
			blocking = append(blocking, edge.FromTaskID)
		}
	}
	return blocking, nil
}

// BlockedTasks возвращает приёмники исходящих BLOCKS рёбер task.
func (s *Store) BlockedTasks(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	outgoing, err := s.deps.ListByFromTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var blocked []uuid.UUID
	for _, edge := range outgoing {
		if edge.Type == domain.DependencyBlocks {
			blocked = append(blocked, edge.ToTaskID)
		}
	}
	return blocked, nil
}
