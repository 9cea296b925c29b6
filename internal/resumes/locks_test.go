package resumes

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyedLocksSerializeSameKey(t *testing.T) {
	locks := newKeyedLocks()
	ctx := context.Background()

	release, err := locks.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := locks.Lock(ctx, "a")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("second lock acquired while first held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second lock never acquired")
	}
	if locks.size() != 0 {
		t.Fatalf("expected no locks left, got %d", locks.size())
	}
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	locks := newKeyedLocks()
	ctx := context.Background()

	ra, err := locks.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer ra()

	done := make(chan error, 1)
	go func() {
		rb, err := locks.Lock(ctx, "b")
		if err == nil {
			rb()
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("lock b: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("lock b blocked by lock a")
	}
}

func TestKeyedLocksHonorContext(t *testing.T) {
	locks := newKeyedLocks()
	release, err := locks.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release()
	if locks.size() != 0 {
		t.Fatalf("expected no locks left, got %d", locks.size())
	}
}
