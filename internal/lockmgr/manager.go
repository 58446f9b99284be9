package lockmgr

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/telemetry"
)

// Значения таймаутов по умолчанию.
const (
	defaultWaitTimeout = 10 * time.Second
	defaultHoldTimeout = 30 * time.Second
)

// Ref — идентификатор сущности, на которую берётся блокировка.
type Ref struct {
	Type domain.ContainerType
	ID   uuid.UUID
}

// less задаёт каноничный порядок взятия блокировок для операций,
// затрагивающих две сущности. Фиксированный порядок исключает
// deadlock между двумя встречными парными операциями.
func (r Ref) less(other Ref) bool {
	if r.Type != other.Type {
		return r.Type < other.Type
	}
	return r.ID.String() < other.ID.String()
}

// waiter — ожидающий выдачи блокировки.
type waiter struct {
	operation string
	ready     chan uuid.UUID // получает holder token при выдаче
}

// lockEntry — состояние блокировки одной сущности.
type lockEntry struct {
	holderToken uuid.UUID
	operation   string
	acquiredAt  time.Time
	waiters     []*waiter // FIFO, порядок прибытия
}

// Manager сериализует мутирующие операции по (entityType, entityID).
//
// Гарантии:
//   - не более одной мутирующей операции на сущность одновременно;
//     операции над разными сущностями идут параллельно
//   - ожидающие выстраиваются в очередь в порядке прибытия
//   - блокировка, удерживаемая дольше holdTimeout, принудительно
//     освобождается; Release вытесненного держателя становится no-op
//   - ожидание дольше waitTimeout завершается retryable ConcurrencyError
//
// Read-only операции менеджер не используют вовсе.
type Manager struct {
	mu    sync.Mutex
	locks map[entityKey]*lockEntry

	waitTimeout time.Duration
	holdTimeout time.Duration

	logger *slog.Logger
}

type entityKey struct {
	entityType domain.ContainerType
	entityID   uuid.UUID
}

// Config — конфигурация Manager.
type Config struct {
	// WaitTimeout — максимум ожидания блокировки (default: 10s).
	WaitTimeout time.Duration

	// HoldTimeout — максимум удержания блокировки до принудительного
	// освобождения (default: 30s).
	HoldTimeout time.Duration

	// Logger — логгер.
	Logger *slog.Logger
}

// New создаёт новый Manager.
func New(cfg Config) *Manager {
	waitTimeout := cfg.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}

	holdTimeout := cfg.HoldTimeout
	if holdTimeout <= 0 {
		holdTimeout = defaultHoldTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		locks:       make(map[entityKey]*lockEntry),
		waitTimeout: waitTimeout,
		holdTimeout: holdTimeout,
		logger:      logger,
	}
}

// Lease — выданная блокировка одной сущности.
// Release обязан вызываться на каждом пути выхода (см. WithLock).
type Lease struct {
	m     *Manager
	key   entityKey
	token uuid.UUID
}

// Acquire берёт блокировку на сущность, ожидая в FIFO очереди.
//
// Возвращает ConcurrencyError (retryable), если ожидание превысило
// waitTimeout или контекст отменён.
func (m *Manager) Acquire(ctx context.Context, operation string, ref Ref) (*Lease, error) {
	key := entityKey{entityType: ref.Type, entityID: ref.ID}
	start := time.Now()

	m.mu.Lock()
	entry, held := m.locks[key]
	if !held {
		token := uuid.New()
		m.locks[key] = &lockEntry{
			holderToken: token,
			operation:   operation,
			acquiredAt:  time.Now(),
		}
		m.mu.Unlock()

		telemetry.LockWaitSeconds.Observe(time.Since(start).Seconds())
		return &Lease{m: m, key: key, token: token}, nil
	}

	w := &waiter{operation: operation, ready: make(chan uuid.UUID, 1)}
	entry.waiters = append(entry.waiters, w)
	m.mu.Unlock()

	waitDeadline := time.NewTimer(m.waitTimeout)
	defer waitDeadline.Stop()

	for {
		// Срок жизни текущего держателя: по его истечении блокировка
		// принудительно освобождается и очередь продвигается.
		expireIn := m.holderExpiresIn(key)
		expiry := time.NewTimer(expireIn)

		select {
		case token := <-w.ready:
			expiry.Stop()
			telemetry.LockWaitSeconds.Observe(time.Since(start).Seconds())
			return &Lease{m: m, key: key, token: token}, nil

		case <-ctx.Done():
			expiry.Stop()
			m.abandon(key, w)
			return nil, &ConcurrencyError{
				Operation:  operation,
				EntityType: ref.Type,
				EntityID:   ref.ID,
				Err:        ctx.Err(),
			}

		case <-waitDeadline.C:
			expiry.Stop()
			m.abandon(key, w)
			return nil, &ConcurrencyError{
				Operation:  operation,
				EntityType: ref.Type,
				EntityID:   ref.ID,
				Err:        ErrWaitTimeout,
			}

		case <-expiry.C:
			m.reapExpired(key)
		}
	}
}

// Release освобождает блокировку и выдаёт её следующему в очереди.
// Возвращает ErrReleased, если lease уже освобождён (в том числе
// принудительно по hold timeout).
func (l *Lease) Release() error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()

	entry, held := l.m.locks[l.key]
	if !held || entry.holderToken != l.token {
		return ErrReleased
	}

	l.m.grantNextLocked(l.key, entry)
	return nil
}

// holderExpiresIn возвращает время до истечения hold timeout текущего
// держателя. Если держатель уже просрочен, освобождает его немедленно.
func (m *Manager) holderExpiresIn(key entityKey) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.locks[key]
	if !held {
		return m.holdTimeout
	}

	remaining := m.holdTimeout - time.Since(entry.acquiredAt)
	if remaining <= 0 {
		m.forceReleaseLocked(key, entry)
		return m.holdTimeout
	}
	return remaining
}

// reapExpired принудительно освобождает просроченного держателя.
func (m *Manager) reapExpired(key entityKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.locks[key]
	if !held {
		return
	}
	if time.Since(entry.acquiredAt) >= m.holdTimeout {
		m.forceReleaseLocked(key, entry)
	}
}

// forceReleaseLocked вытесняет держателя, превысившего hold timeout.
// Release вытесненного lease после этого — no-op (token уже не совпадёт).
func (m *Manager) forceReleaseLocked(key entityKey, entry *lockEntry) {
	m.logger.Warn("force-releasing expired lock",
		"entity_type", key.entityType,
		"entity_id", key.entityID,
		"operation", entry.operation,
		"held_for", time.Since(entry.acquiredAt),
	)
	telemetry.LockForcedReleases.Inc()

	m.grantNextLocked(key, entry)
}

// grantNextLocked выдаёт блокировку голове очереди
// или удаляет запись, если очередь пуста.
func (m *Manager) grantNextLocked(key entityKey, entry *lockEntry) {
	if len(entry.waiters) == 0 {
		delete(m.locks, key)
		return
	}

	next := entry.waiters[0]
	entry.waiters = entry.waiters[1:]

	token := uuid.New()
	entry.holderToken = token
	entry.operation = next.operation
	entry.acquiredAt = time.Now()

	next.ready <- token
}

// abandon убирает ожидающего из очереди.
// Если блокировка уже была выдана ему (гонка с grantNextLocked),
// немедленно освобождает её.
func (m *Manager) abandon(key entityKey, w *waiter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.locks[key]
	if held {
		for i, candidate := range entry.waiters {
			if candidate == w {
				entry.waiters = append(entry.waiters[:i], entry.waiters[i+1:]...)
				return
			}
		}
	}

	// Нас уже нет в очереди — возможно, блокировку успели выдать.
	select {
	case token := <-w.ready:
		if held && entry.holderToken == token {
			m.grantNextLocked(key, entry)
		}
	default:
	}
}

// WithLock выполняет fn под блокировкой сущности.
// Освобождение гарантировано на любом пути выхода, включая панику в fn.
func (m *Manager) WithLock(ctx context.Context, operation string, ref Ref, fn func(ctx context.Context) error) error {
	lease, err := m.Acquire(ctx, operation, ref)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(ctx)
}

// WithPair выполняет fn под блокировками двух сущностей,
// взятыми в каноничном порядке (предотвращение deadlock между
// встречными парными операциями). Если a и b совпадают,
// берётся одна блокировка.
func (m *Manager) WithPair(ctx context.Context, operation string, a, b Ref, fn func(ctx context.Context) error) error {
	if a == b {
		return m.WithLock(ctx, operation, a, fn)
	}

	first, second := a, b
	if second.less(first) {
		first, second = second, first
	}

	firstLease, err := m.Acquire(ctx, operation, first)
	if err != nil {
		return err
	}
	defer firstLease.Release()

	secondLease, err := m.Acquire(ctx, operation, second)
	if err != nil {
		return err
	}
	defer secondLease.Release()

	return fn(ctx)
}

// Held возвращает true, если на сущность сейчас удерживается блокировка.
func (m *Manager) Held(ref Ref) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, held := m.locks[entityKey{entityType: ref.Type, entityID: ref.ID}]
	return held
}
