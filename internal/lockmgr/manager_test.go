package lockmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
)

func taskRef() Ref {
	return Ref{Type: domain.ContainerTypeTask, ID: uuid.New()}
}

func TestAcquireRelease(t *testing.T) {
	m := New(Config{})
	ref := taskRef()

	lease, err := m.Acquire(context.Background(), "test", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !m.Held(ref) {
		t.Error("lock should be held after acquire")
	}

	if err := lease.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Held(ref) {
		t.Error("lock should not be held after release")
	}
}

func TestRelease_Twice(t *testing.T) {
	m := New(Config{})

	lease, err := m.Acquire(context.Background(), "test", taskRef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := lease.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lease.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("expected ErrReleased, got %v", err)
	}
}

func TestWithLock_SerializesSameEntity(t *testing.T) {
	m := New(Config{})
	ref := taskRef()
	ctx := context.Background()

	var inside int
	var maxInside int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "concurrent", ref, func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most 1 goroutine inside, got %d", maxInside)
	}
	if m.Held(ref) {
		t.Error("lock should be released after all operations")
	}
}

func TestWithLock_DifferentEntitiesRunInParallel(t *testing.T) {
	m := New(Config{WaitTimeout: 200 * time.Millisecond})
	ctx := context.Background()

	// Держим блокировку первой сущности и убеждаемся,
	// что вторая берётся без ожидания.
	lease, err := m.Acquire(ctx, "hold", taskRef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lease.Release()

	done := make(chan error, 1)
	go func() {
		done <- m.WithLock(ctx, "other", taskRef(), func(ctx context.Context) error {
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("independent entity should not wait")
	}
}

func TestAcquire_FIFOOrder(t *testing.T) {
	m := New(Config{})
	ref := taskRef()
	ctx := context.Background()

	lease, err := m.Acquire(ctx, "holder", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ставим трёх ожидающих по очереди
	const n = 3
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := m.Acquire(ctx, "waiter", ref)
			if err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			_ = l.Release()
		}(i)
		// Даём ожидающему встать в очередь до следующего
		time.Sleep(20 * time.Millisecond)
	}

	_ = lease.Release()
	wg.Wait()

	for i := 0; i < n; i++ {
		if order[i] != i {
			t.Fatalf("expected FIFO order [0 1 2], got %v", order)
		}
	}
}

func TestAcquire_WaitTimeout(t *testing.T) {
	m := New(Config{WaitTimeout: 50 * time.Millisecond})
	ref := taskRef()
	ctx := context.Background()

	lease, err := m.Acquire(ctx, "holder", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lease.Release()

	_, err = m.Acquire(ctx, "waiter", ref)

	var concErr *ConcurrencyError
	if !errors.As(err, &concErr) {
		t.Fatalf("expected *ConcurrencyError, got %v", err)
	}
	if !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("expected ErrWaitTimeout cause, got %v", concErr.Err)
	}
	if !concErr.Retryable() {
		t.Error("concurrency error should be retryable")
	}
}

func TestAcquire_ContextCancelled(t *testing.T) {
	m := New(Config{})
	ref := taskRef()

	lease, err := m.Acquire(context.Background(), "holder", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lease.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = m.Acquire(ctx, "waiter", ref)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled cause, got %v", err)
	}
}

func TestAcquire_ForceReleaseAfterHoldTimeout(t *testing.T) {
	m := New(Config{
		WaitTimeout: 500 * time.Millisecond,
		HoldTimeout: 50 * time.Millisecond,
	})
	ref := taskRef()
	ctx := context.Background()

	stale, err := m.Acquire(ctx, "stuck", ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ожидающий должен получить блокировку после истечения hold timeout
	start := time.Now()
	lease, err := m.Acquire(ctx, "waiter", ref)
	if err != nil {
		t.Fatalf("expected lock after forced release, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("lock granted too early: %v", elapsed)
	}

	// Release вытесненного держателя — no-op
	if err := stale.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("expected ErrReleased for evicted holder, got %v", err)
	}

	// Новый держатель освобождает нормально
	if err := lease.Release(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWithPair_CanonicalOrderAvoidsDeadlock(t *testing.T) {
	m := New(Config{WaitTimeout: 2 * time.Second})
	ctx := context.Background()

	a := taskRef()
	b := taskRef()

	// Встречные парные операции: (a, b) и (b, a) одновременно.
	// Каноничный порядок взятия исключает deadlock.
	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i, pair := range [][2]Ref{{a, b}, {b, a}} {
		wg.Add(1)
		go func(i int, pair [2]Ref) {
			defer wg.Done()
			errs[i] = m.WithPair(ctx, "pair", pair[0], pair[1], func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				return nil
			})
		}(i, pair)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pair operations deadlocked")
	}

	for i, err := range errs {
		if err != nil {
			t.Errorf("operation %d: %v", i, err)
		}
	}
	if m.Held(a) || m.Held(b) {
		t.Error("all locks should be released")
	}
}

func TestWithPair_SameEntity(t *testing.T) {
	m := New(Config{})
	ref := taskRef()

	// Совпадающие сущности — одна блокировка, не self-deadlock
	err := m.WithPair(context.Background(), "pair", ref, ref, func(ctx context.Context) error {
		if !m.Held(ref) {
			t.Error("lock should be held inside fn")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Held(ref) {
		t.Error("lock should be released")
	}
}

func TestWithLock_ErrorPropagates(t *testing.T) {
	m := New(Config{})
	ref := taskRef()
	sentinel := errors.New("boom")

	err := m.WithLock(context.Background(), "failing", ref, func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected fn error to propagate, got %v", err)
	}
	if m.Held(ref) {
		t.Error("lock should be released after fn error")
	}
}
