package lockmgr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
)

// Ошибки менеджера блокировок.
var (
	// ErrWaitTimeout — ожидание блокировки превысило настроенный предел.
	ErrWaitTimeout = errors.New("lock wait timeout")

	// ErrReleased — lease уже освобождён (повторный Release или
	// принудительное освобождение по hold timeout).
	ErrReleased = errors.New("lease already released")
)

// ConcurrencyError — ошибка конкурентного доступа.
//
// Всегда retryable: вызывающая сторона может безопасно повторить
// операцию, частичных мутаций не произошло.
type ConcurrencyError struct {
	Operation  string
	EntityType domain.ContainerType
	EntityID   uuid.UUID
	Err        error
}

// Error реализует интерфейс error.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("operation %q on %s %s: %v",
		e.Operation, e.EntityType, e.EntityID, e.Err)
}

// Unwrap возвращает базовую ошибку.
func (e *ConcurrencyError) Unwrap() error {
	return e.Err
}

// Retryable всегда true: таймаут ожидания не оставляет частичного состояния.
func (e *ConcurrencyError) Retryable() bool {
	return true
}
