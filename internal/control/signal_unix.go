//go:build !windows

package control

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WatchSignals binds SIGINT/SIGTERM to RequestStop and SIGUSR2 to toggle
// pause, returning a cancel func that stops the watch. Unix-only: SIGUSR2
// has no Windows equivalent, so the Windows build (signal_other.go) skips
// that binding rather than failing to compile.
func WatchSignals(ctx context.Context, p *Plane) (cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR2)

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-quit:
				return
			case sig := <-sigCh:
				switch sig {
				case os.Interrupt, syscall.SIGTERM:
					p.RequestStop("signal: " + sig.String())
				case syscall.SIGUSR2:
					p.TogglePause("signal: " + sig.String())
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(quit)
		<-done
	}
}
