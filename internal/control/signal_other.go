//go:build windows

package control

import (
	"context"
	"os"
	"os/signal"
)

// WatchSignals binds SIGINT/os.Interrupt to RequestStop. Windows has no
// SIGUSR2 equivalent, so the pause-toggle binding is skipped entirely —
// the file-based WatchFile control remains available for pause/resume.
func WatchSignals(ctx context.Context, p *Plane) (cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

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
				p.RequestStop("signal: " + sig.String())
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(quit)
		<-done
	}
}
