package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/rapid/pkg/lifecycle"
)

func TestNotReadyBeforeStartup(t *testing.T) {
	lc := lifecycle.New(context.Background())
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}
}

func TestReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New(context.Background())
	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}

	if !lc.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New(context.Background())

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() error {
			count.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}

	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
}

func TestStartupFailureNotReady(t *testing.T) {
	lc := lifecycle.New(context.Background())

	errPing := errors.New("ping failed")
	lc.OnStartup(func() error { return nil })
	lc.OnStartup(func() error { return errPing })

	err := lc.WaitForStartup()
	if !errors.Is(err, errPing) {
		t.Errorf("WaitForStartup() = %v, want %v", err, errPing)
	}
	if lc.Ready() {
		t.Error("should not be ready after a failed startup hook")
	}
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New(context.Background())

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}
}

func TestWorkerStopsOnShutdown(t *testing.T) {
	lc := lifecycle.New(context.Background())

	var stopped atomic.Bool
	lc.Go(func(ctx context.Context) {
		<-ctx.Done()
		stopped.Store(true)
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !stopped.Load() {
		t.Error("worker did not observe cancellation")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New(context.Background())

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	err := lc.Shutdown(50 * time.Millisecond)
	if err == nil {
		t.Error("expected timeout error, got nil")
	}
}

func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	lc := lifecycle.New(parent)
	cancel()

	select {
	case <-lc.Context().Done():
	case <-time.After(time.Second):
		t.Error("coordinator context should follow parent cancellation")
	}
}
