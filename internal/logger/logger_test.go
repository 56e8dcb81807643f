package logger

import (
	"os"
	"strings"
	"testing"

	"github.com/dbsmedya/fscrawl/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string // String representation of zapcore.Level
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"}, // empty defaults to info
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"}, // unknown defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name: "json format info level",
			cfg: &config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "text format debug level",
			cfg: &config.LoggingConfig{
				Level:  "debug",
				Format: "text",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "file output",
			cfg: &config.LoggingConfig{
				Level:  "warn",
				Format: "json",
				Output: "/tmp/test-log.json",
			},
			wantErr: false,
		},
		{
			name: "stderr output",
			cfg: &config.LoggingConfig{
				Level:  "error",
				Format: "text",
				Output: "stderr",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if logger == nil && !tt.wantErr {
				t.Error("New() returned nil logger without error")
			}
			if logger != nil {
				_ = logger.Sync()
			}
		})
	}

	_ = os.Remove("/tmp/test-log.json")
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}

	logger.Info("test message")
	_ = logger.Sync()
}

func TestWithIteration(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	iterLogger := logger.With("iteration", 3)
	if iterLogger == nil {
		t.Fatalf("With() returned nil")
	}
	if iterLogger == logger {
		t.Error("With() should return a new logger instance")
	}

	iterLogger.Info("test with iteration")
	_ = logger.Sync()
}

func TestWithRow(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	rowLogger := logger.With("row", 42)
	if rowLogger == nil {
		t.Fatalf("With() returned nil")
	}

	rowLogger.Info("test with row")
	_ = logger.Sync()
}

func TestWithIndividual(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	idLogger := logger.With("fs_id", "ABCD-123")
	if idLogger == nil {
		t.Fatalf("With() returned nil")
	}

	idLogger.Info("test with individual")
	_ = logger.Sync()
}

func TestWithFields(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	fieldLogger := logger.With("custom_field", "value", "number", 123)
	if fieldLogger == nil {
		t.Fatalf("With() returned nil")
	}

	fieldLogger.Info("test with fields")
	_ = logger.Sync()
}

func TestChaining(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	chainedLogger := logger.With("iteration", 2).With("row", 5).With("fs_id", "WXYZ-789")
	if chainedLogger == nil {
		t.Fatalf("Chained logger is nil")
	}

	chainedLogger.Info("test chained context")
	_ = logger.Sync()
}

func TestBuildEncoder(t *testing.T) {
	jsonEncoder := buildEncoder("json")
	if jsonEncoder == nil {
		t.Error("buildEncoder('json') returned nil")
	}

	textEncoder := buildEncoder("text")
	if textEncoder == nil {
		t.Error("buildEncoder('text') returned nil")
	}

	defaultEncoder := buildEncoder("unknown")
	if defaultEncoder == nil {
		t.Error("buildEncoder('unknown') returned nil")
	}
}

func TestBuildWriters(t *testing.T) {
	stdoutWriter := buildWriters("stdout")
	if stdoutWriter == nil {
		t.Error("buildWriters('stdout') returned nil")
	}

	stderrWriter := buildWriters("stderr")
	if stderrWriter == nil {
		t.Error("buildWriters('stderr') returned nil")
	}

	emptyWriter := buildWriters("")
	if emptyWriter == nil {
		t.Error("buildWriters('') returned nil")
	}

	tmpFile := "/tmp/test-logger-output.log"
	fileWriter := buildWriters(tmpFile)
	if fileWriter == nil {
		t.Error("buildWriters(file) returned nil")
	}

	_ = os.Remove(tmpFile)
}

func TestSync(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	err = logger.Sync()
	_ = err
}

func TestLoggingOutput(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "logger-test-*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	_ = tmpFile.Close()
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	cfg := &config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: tmpFile.Name(),
	}

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("test info message")
	logger.Warn("test warn message")
	logger.With("iteration", 1).Info("message with iteration context")

	_ = logger.Sync()

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "test info message") {
		t.Error("Log file should contain 'test info message'")
	}
	if !strings.Contains(contentStr, "test warn message") {
		t.Error("Log file should contain 'test warn message'")
	}
	if !strings.Contains(contentStr, "\"iteration\":1") {
		t.Error("Log file should contain iteration context")
	}
}
