package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/lockmgr"
	"github.com/shaiso/Tracker/internal/mq"
	"github.com/shaiso/Tracker/internal/telemetry"
	"github.com/shaiso/Tracker/internal/workflow"
)

// TransitionStatus применяет переход статуса контейнера.
//
// Последовательность validate-then-transition выполняется целиком под
// блокировкой сущности: снимок пререквизитов, снятый до валидации,
// не может устареть к моменту записи. При отказе валидации возвращается
// *TransitionError с полным результатом (в том числе достижимыми
// статусами); состояние при этом не меняется.
func (s *Service) TransitionStatus(ctx context.Context, t domain.ContainerType, id uuid.UUID, requested string) (workflow.Result, error) {
	var result workflow.Result

	ref := lockmgr.Ref{Type: t, ID: id}
	err := s.locks.WithLock(ctx, "transition_status", ref, func(ctx context.Context) error {
		container, err := s.GetContainer(ctx, t, id)
		if err != nil {
			return err
		}

		prereq, err := s.gatherPrereq(ctx, container)
		if err != nil {
			return fmt.Errorf("gather prerequisites: %w", err)
		}

		result = s.validator.ValidateTransition(workflow.TransitionRequest{
			Current:       container.Status,
			Requested:     requested,
			ContainerType: t,
			ContainerID:   id,
			Tags:          container.Tags,
			Prereq:        prereq,
		})

		if !result.OK() {
			telemetry.TransitionsRejected.Inc()
			return &TransitionError{
				ContainerType: t,
				ContainerID:   id,
				Requested:     requested,
				Result:        result,
			}
		}

		if err := s.updateStatus(ctx, t, id, requested); err != nil {
			return err
		}

		telemetry.TransitionsApplied.Inc()

		flow := s.resolver.FlowFor(container.Tags)
		logger := telemetry.WithOperation(
			telemetry.WithContainer(s.logger, string(t), id.String()),
			"transition_status",
		)
		logger.Info("status transition applied",
			"from", container.Status,
			"to", requested,
			"flow", flow.Name,
		)

		s.publishStatusChanged(ctx, mq.StatusChangedPayload{
			ContainerType: string(t),
			ContainerID:   id,
			From:          container.Status,
			To:            requested,
			Flow:          flow.Name,
		})

		return nil
	})

	return result, err
}

// ValidateTransition выполняет dry-run валидацию перехода.
//
// Ничего не мутирует и блокировок не берёт: снимок пререквизитов
// может устареть сразу после возврата, поэтому результат — только
// preview. Применение всегда проходит через TransitionStatus.
func (s *Service) ValidateTransition(ctx context.Context, t domain.ContainerType, id uuid.UUID, requested string) (workflow.Result, error) {
	container, err := s.GetContainer(ctx, t, id)
	if err != nil {
		return workflow.Result{}, err
	}

	prereq, err := s.gatherPrereq(ctx, container)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("gather prerequisites: %w", err)
	}

	return s.validator.ValidateTransition(workflow.TransitionRequest{
		Current:       container.Status,
		Requested:     requested,
		ContainerType: t,
		ContainerID:   id,
		Tags:          container.Tags,
		Prereq:        prereq,
	}), nil
}

// NextStatus вычисляет следующий статус контейнера по событию event.
// Пустой event означает первое объявленное исходящее ребро.
func (s *Service) NextStatus(ctx context.Context, t domain.ContainerType, id uuid.UUID, event string) (workflow.NextStatus, error) {
	container, err := s.GetContainer(ctx, t, id)
	if err != nil {
		return workflow.NextStatus{}, err
	}

	return s.resolver.Next(container.Tags, container.Status, event)
}

// ReachableStatuses возвращает статусы, достижимые из текущего
// статуса контейнера в его активном flow.
func (s *Service) ReachableStatuses(ctx context.Context, t domain.ContainerType, id uuid.UUID) ([]string, error) {
	container, err := s.GetContainer(ctx, t, id)
	if err != nil {
		return nil, err
	}

	return s.resolver.Reachable(container.Tags, container.Status), nil
}

// AllowedStatuses возвращает полный набор статус-литералов для типа
// контейнера по активной конфигурации flows.
func (s *Service) AllowedStatuses(t domain.ContainerType) []string {
	return s.resolver.AllowedStatuses(t)
}

// gatherPrereq снимает снимок состояния для пререквизит-предикатов.
//
// Один снимок на валидацию: все счётчики и списки читаются до вызова
// Validator, сам Validator никакого I/O не выполняет.
func (s *Service) gatherPrereq(ctx context.Context, c domain.Container) (workflow.PrereqContext, error) {
	var prereq workflow.PrereqContext

	switch c.Type {
	case domain.ContainerTypeProject:
		total, err := s.features.CountByProjectID(ctx, c.ID)
		if err != nil {
			return prereq, fmt.Errorf("count features: %w", err)
		}
		nonTerminal, err := s.features.CountNonTerminalByProjectID(ctx, c.ID)
		if err != nil {
			return prereq, fmt.Errorf("count non-terminal features: %w", err)
		}
		prereq.ChildCount = total
		prereq.NonTerminalChildren = nonTerminal

	case domain.ContainerTypeFeature:
		tasks, err := s.tasks.ListByFeatureID(ctx, c.ID)
		if err != nil {
			return prereq, fmt.Errorf("list tasks: %w", err)
		}
		prereq.ChildCount = len(tasks)
		for i := range tasks {
			if !domain.IsTerminalStatus(tasks[i].Status) {
				prereq.NonTerminalChildren++
			}
		}

	case domain.ContainerTypeTask:
		task, err := s.tasks.GetByID(ctx, c.ID)
		if err != nil {
			return prereq, fmt.Errorf("get task: %w", err)
		}
		// Длина в символах, не в байтах: summary может быть не-ASCII.
		prereq.SummaryLength = len([]rune(task.Summary))

		blocking, err := s.unresolvedBlockers(ctx, c.ID)
		if err != nil {
			return prereq, err
		}
		prereq.BlockingTaskIDs = blocking

		unblocked, err := s.graph.BlockedTasks(ctx, c.ID)
		if err != nil {
			return prereq, fmt.Errorf("list blocked tasks: %w", err)
		}
		prereq.UnblockedTaskIDs = unblocked
	}

	return prereq, nil
}

// unresolvedBlockers возвращает источники входящих BLOCKS рёбер task,
// ещё не достигшие терминального статуса.
func (s *Service) unresolvedBlockers(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	blockers, err := s.graph.BlockingTasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list blocking tasks: %w", err)
	}

	var unresolved []uuid.UUID
	for _, blockerID := range blockers {
		blocker, err := s.tasks.GetByID(ctx, blockerID)
		if err != nil {
			return nil, fmt.Errorf("get blocking task %s: %w", blockerID, err)
		}
		if !domain.IsTerminalStatus(blocker.Status) {
			unresolved = append(unresolved, blockerID)
		}
	}

	return unresolved, nil
}

// publishStatusChanged публикует событие перехода.
// Переход к этому моменту уже применён: ошибка публикации логируется,
// но не откатывает запись.
func (s *Service) publishStatusChanged(ctx context.Context, payload mq.StatusChangedPayload) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishStatusChanged(ctx, payload); err != nil {
		telemetry.WithContainer(s.logger, payload.ContainerType, payload.ContainerID.String()).
			Warn("failed to publish status change", "error", err)
	}
}
