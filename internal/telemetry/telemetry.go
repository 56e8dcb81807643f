// Package telemetry emits the append-only JSON-lines event stream
// described in SPEC_FULL.md §4.8.1, grounded on
// original_source/util/telemetry.py's TelemetryEmitter.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Emitter writes one JSON object per line: {"ts":..., "event":..., ...}.
// Safe for concurrent use.
type Emitter struct {
	mu   sync.Mutex
	w    io.Writer
	file *os.File
}

// NewFile opens (creating parent directories and appending to an existing
// file) the telemetry log at path.
func NewFile(path string) (*Emitter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{w: f, file: f}, nil
}

// NewWriter wraps an arbitrary writer (e.g. os.Stdout for "-") as an
// Emitter that Close does not attempt to close.
func NewWriter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// FromPath is the CLI-facing constructor: "" disables telemetry (returns
// nil, nil), "-" streams to stdout, anything else opens a file.
func FromPath(path string, stdout io.Writer) (*Emitter, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return NewWriter(stdout), nil
	default:
		return NewFile(path)
	}
}

// Emit appends one record. A nil Emitter receiver is a no-op, so callers
// needn't guard every call site behind "telemetry enabled" checks.
func (e *Emitter) Emit(event string, fields map[string]any) error {
	if e == nil {
		return nil
	}
	record := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		record[k] = v
	}
	record["ts"] = time.Now().UTC().Format(time.RFC3339)
	record["event"] = event

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("telemetry: marshal %s event: %w", event, err)
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("telemetry: write %s event: %w", event, err)
	}
	return nil
}

// Close closes the underlying file, if any. A nil Emitter or one backed
// by a caller-owned writer is a no-op.
func (e *Emitter) Close() error {
	if e == nil || e.file == nil {
		return nil
	}
	return e.file.Close()
}
