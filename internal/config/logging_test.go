package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("batch finished", "jobs", 3)
	logger.Debug("suppressed")

	t.Run("text record on stderr", func(t *testing.T) {
		out := stderr.String()
		if !strings.Contains(out, "batch finished") || !strings.Contains(out, "jobs=3") {
			t.Errorf("stderr output = %q", out)
		}
	})

	t.Run("json record in file", func(t *testing.T) {
		var record map[string]any
		if err := json.Unmarshal(file.Bytes(), &record); err != nil {
			t.Fatalf("file output is not JSON: %v: %q", err, file.String())
		}
		if record["msg"] != "batch finished" || record["jobs"] != float64(3) {
			t.Errorf("record = %v", record)
		}
	})

	t.Run("level filters both outputs", func(t *testing.T) {
		if strings.Contains(stderr.String(), "suppressed") || strings.Contains(file.String(), "suppressed") {
			t.Error("debug record passed the info-level filter")
		}
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("appends json records to the log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "transdoc.log")
		logger, cleanup := SetupLogger(path, slog.LevelInfo)
		logger.Info("hello")
		if err := cleanup(); err != nil {
			t.Fatalf("cleanup error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("log file not written: %v", err)
		}
		if !strings.Contains(string(data), `"msg":"hello"`) {
			t.Errorf("log file = %q", data)
		}
	})

	t.Run("unwritable file falls back to stderr only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "no-such-dir", "transdoc.log")
		logger, cleanup := SetupLogger(path, slog.LevelInfo)
		if logger == nil {
			t.Fatal("no logger returned")
		}
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error = %v", err)
		}
	})
}
