package watcher

import (
	"context"

	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/mq"
)

// handleContainerChanged обрабатывает событие о применённом переходе.
func (w *Watcher) handleContainerChanged(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.StatusChangedPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse status changed payload", "error", err)
		return err
	}

	containerType, ok := domain.ParseContainerType(payload.ContainerType)
	if !ok {
		// Некорректный тип не станет корректным при retry.
		w.logger.Error("unknown container type in event",
			"container_type", payload.ContainerType,
			"container_id", payload.ContainerID,
		)
		return nil
	}

	w.logger.Debug("received status changed event",
		"container_type", containerType,
		"container_id", payload.ContainerID,
		"from", payload.From,
		"to", payload.To,
	)

	w.detect(ctx, payload.ContainerID, containerType)
	return nil
}

// handleDependencyChanged обрабатывает событие изменения графа.
//
// Изменение ребра может разблокировать приёмника или изменить картину
// для его родителя — детекция прогоняется по обеим конечным tasks.
func (w *Watcher) handleDependencyChanged(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.DependencyChangedPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse dependency changed payload", "error", err)
		return err
	}

	w.logger.Debug("received dependency changed event",
		"dependency_id", payload.DependencyID,
		"from_task_id", payload.FromTaskID,
		"to_task_id", payload.ToTaskID,
		"action", payload.Action,
	)

	w.detect(ctx, payload.FromTaskID, domain.ContainerTypeTask)
	w.detect(ctx, payload.ToTaskID, domain.ContainerTypeTask)
	return nil
}
