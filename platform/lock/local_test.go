package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func TestLocalLockerSerialisesSameKey(t *testing.T) {
	locker := NewLocal()
	ctx := context.Background()

	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Acquire(ctx, "lead-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			_ = unlock(ctx)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
	if locker.held() != 0 {
		t.Fatalf("expected all slots to be released, %d remain", locker.held())
	}
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocal()
	ctx := context.Background()

	unlockA, err := locker.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer func() { _ = unlockA(ctx) }()

	timeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Acquire(timeout, "b")
	if err != nil {
		t.Fatalf("expected b to be free while a is held: %v", err)
	}
	_ = unlockB(ctx)
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocal()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "lead-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(timeout, "lead-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	_ = unlock(ctx)
	_ = unlock(ctx)
	if locker.held() != 0 {
		t.Fatalf("expected slot cleanup after release, %d remain", locker.held())
	}
}
