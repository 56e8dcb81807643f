//go:build !windows

package control

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestWatchSignalsStopOnSIGTERM(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	p := NewPlane()
	cancel := WatchSignals(ctx, p)
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		if stop, _ := p.ShouldStop(); stop {
			return
		}
		select {
		case <-deadline:
			t.Fatal("expected RequestStop to be called after SIGTERM")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchSignalsTogglePauseOnSIGUSR2(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	p := NewPlane()
	cancel := WatchSignals(ctx, p)
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("send SIGUSR2: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		if p.IsPaused() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("expected pause to toggle on after SIGUSR2")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
