package control

import (
	"context"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dbsmedya/fscrawl/internal/logger"
)

// WatchFile watches path for write events and translates its contents —
// "pause", "resume", or "stop" (whitespace-trimmed, case-insensitive) —
// into the corresponding Plane call. Unrecognized contents are logged and
// ignored. Returns a cancel func that stops the watch; a zero-value path
// makes WatchFile a no-op, matching spec.md §4.7's "pause file optional".
func WatchFile(ctx context.Context, path string, p *Plane, log *logger.Logger) (cancel func(), err error) {
	if path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := parentDir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				applyControlFile(path, p, log)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnw("control file watch error", "error", watchErr)
			}
		}
	}()

	return func() {
		watcher.Close()
		<-done
	}, nil
}

func applyControlFile(path string, p *Plane, log *logger.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnw("read control file", "path", path, "error", err)
		return
	}
	command := strings.ToLower(strings.TrimSpace(string(data)))
	switch command {
	case "pause":
		p.RequestPause("control file")
	case "resume":
		p.ClearPause()
	case "stop":
		p.RequestStop("control file")
	case "":
		// ignore a truncated/empty write mid-edit
	default:
		log.Warnw("unrecognized control file command", "command", command)
	}
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
