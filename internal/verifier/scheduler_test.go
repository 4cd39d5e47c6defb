package verifier

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})

	s := NewScheduler("test", 10*time.Millisecond, func(ctx context.Context) error {
		started.Add(1)
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Many timer firings pass while the first tick holds the permit.
	time.Sleep(100 * time.Millisecond)
	if got := started.Load(); got != 1 {
		t.Errorf("expected exactly 1 in-flight tick, got %d", got)
	}

	close(release)
	cancel()
	<-done
}

func TestSchedulerKeepsRunningAfterErrors(t *testing.T) {
	var calls atomic.Int32

	s := NewScheduler("test", 5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return context.DeadlineExceeded
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	if got := calls.Load(); got < 2 {
		t.Errorf("expected the loop to survive tick errors, got %d calls", got)
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	var calls atomic.Int32

	s := NewScheduler("test", 5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Errorf("expected no ticks after cancel, got %d more", got-after)
	}
}
