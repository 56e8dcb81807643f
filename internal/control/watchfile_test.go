package control

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dbsmedya/fscrawl/internal/logger"
)

func waitFor(t *testing.T, check func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if check() {
			return
		}
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchFilePauseResumeStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "control.txt")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("create control file: %v", err)
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	p := NewPlane()
	cancel, err := WatchFile(ctx, path, p, logger.NewDefault())
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer cancel()

	if err := os.WriteFile(path, []byte("pause"), 0o644); err != nil {
		t.Fatalf("write pause: %v", err)
	}
	waitFor(t, p.IsPaused, "expected pause to be requested")

	if err := os.WriteFile(path, []byte("resume"), 0o644); err != nil {
		t.Fatalf("write resume: %v", err)
	}
	waitFor(t, func() bool { return !p.IsPaused() }, "expected pause to be cleared")

	if err := os.WriteFile(path, []byte("stop"), 0o644); err != nil {
		t.Fatalf("write stop: %v", err)
	}
	waitFor(t, func() bool { stop, _ := p.ShouldStop(); return stop }, "expected stop to be requested")
}

func TestWatchFileEmptyPathIsNoop(t *testing.T) {
	p := NewPlane()
	cancel, err := WatchFile(context.Background(), "", p, logger.NewDefault())
	if err != nil {
		t.Fatalf("WatchFile with empty path: %v", err)
	}
	cancel()
	if p.IsPaused() {
		t.Error("expected no-op watcher to leave Plane untouched")
	}
}
