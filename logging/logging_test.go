// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupWritesStdoutAndFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "api.log")

	closer, err := Setup(Config{Level: "info", Format: "json", File: path, MaxSizeMB: 1}, &buf)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("hidden")
	slog.Info("robot created", "robot_id", "r1")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(buf.String(), `"robot_id":"r1"`) {
		t.Errorf("Expected JSON record on stdout, got %s", buf.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "robot created") {
		t.Errorf("Expected record in log file, got %s", data)
	}
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	if _, err := Setup(Config{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("Setup() should reject unknown formats")
	}
}
