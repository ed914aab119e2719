package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/torosent/docloader/internal/store"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		want    log.Level
		wantErr bool
	}{
		{name: "defaults", want: log.InfoLevel},
		{name: "debug text", level: "debug", format: "text", want: log.DebugLevel},
		{name: "warn json", level: "warn", format: "json", want: log.WarnLevel},
		{name: "bad level", level: "loud", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := log.New()
			err := Apply(logger, tt.level, tt.format, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestFailureLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	if err := Apply(logger, "info", "json", &buf); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	NewFailureLogger(logger).LogFailure("travel.inventory.hotel", store.ErrTimeout)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["target"] != "travel.inventory.hotel" {
		t.Errorf("target = %v", entry["target"])
	}
	if entry["outcome"] != "timeout" {
		t.Errorf("outcome = %v, want timeout", entry["outcome"])
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
}

func TestFailureLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	if err := Apply(logger, "error", "text", &buf); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	NewFailureLogger(logger).LogFailure("t", store.ErrDocumentExists)

	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("expected no output at error level, got %q", buf.String())
	}
}

func TestApplyWithFile(t *testing.T) {
	var console bytes.Buffer
	logger := log.New()
	if err := Apply(logger, "info", "text", &console); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	closer, err := AddFile(logger, filepath.Join(dir, "logs", "docloader-{date}.log"), "debug", now)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	logger.Debug("batch detail")
	logger.Info("run started")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "docloader-20261019.log"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"batch detail", "run started"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q:\n%s", want, data)
		}
	}
	if !strings.Contains(console.String(), "run started") {
		t.Errorf("console missing info line: %q", console.String())
	}
	if strings.Contains(console.String(), "batch detail") {
		t.Errorf("console got debug line: %q", console.String())
	}
}

func TestAddFileRejectsBadLevel(t *testing.T) {
	if _, err := AddFile(log.New(), filepath.Join(t.TempDir(), "x.log"), "loud", time.Now()); err == nil {
		t.Error("AddFile() error = nil, want level error")
	}
}

func TestApplyDropsFileHooks(t *testing.T) {
	logger := log.New()
	if err := Apply(logger, "info", "text", &bytes.Buffer{}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	closer, err := AddFile(logger, filepath.Join(t.TempDir(), "x.log"), "debug", time.Now())
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	defer closer.Close()

	var console bytes.Buffer
	if err := Apply(logger, "info", "text", &console); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(logger.Hooks) != 0 {
		t.Errorf("hooks = %v, want none after Apply", logger.Hooks)
	}
	logger.Info("after reset")
	if !strings.Contains(console.String(), "after reset") {
		t.Errorf("console = %q, want the info line", console.String())
	}
}

func TestFilePath(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"Logs/docloader-{date}.txt": "Logs/docloader-20260102.txt",
		"run.log":                   "run.log",
	}
	for in, want := range tests {
		if got := FilePath(in, now); got != want {
			t.Errorf("FilePath(%q) = %q, want %q", in, got, want)
		}
	}
}
