package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeTestConfig(t *testing.T, path, logLevel string) {
	t.Helper()
	content := `
intake:
  max_upload_size: 1048576
worker:
  pool_size: 1
ocr:
  max_page_concurrent: 1
logging:
  level: ` + logLevel + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestWatcherHotReloadsLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestConfig(t, path, "info")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	w, err := NewWatcher(path, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	if w.LogLevel() != "info" {
		t.Fatalf("expected initial log level info, got %s", w.LogLevel())
	}

	writeTestConfig(t, path, "debug")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.LogLevel() == "debug" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected log level to hot-reload to debug, got %s", w.LogLevel())
}
