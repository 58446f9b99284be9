package tracker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/workflow"
)

// Ошибки service-слоя.
var (
	// ErrTransitionRejected — переход не прошёл валидацию.
	ErrTransitionRejected = errors.New("transition rejected")

	// ErrUnknownContainerType — неизвестный уровень иерархии.
	ErrUnknownContainerType = errors.New("unknown container type")
)

// TransitionError — отказ в применении перехода с полным результатом
// валидации (причина, достижимые статусы).
type TransitionError struct {
	ContainerType domain.ContainerType
	ContainerID   uuid.UUID
	Requested     string
	Result        workflow.Result
}

// Error реализует интерфейс error.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition of %s %s to %q rejected: %s",
		e.ContainerType, e.ContainerID, e.Requested, e.Result.Reason)
}

// Unwrap возвращает сентинельную ошибку для errors.Is.
func (e *TransitionError) Unwrap() error {
	return ErrTransitionRejected
}
