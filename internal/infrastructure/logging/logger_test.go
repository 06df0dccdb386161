package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/rowanfell/hearth-core/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	cfgs := []config.LoggingConfig{
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "text", Output: "stderr"},
		{Level: "", Format: "", Output: ""}, // everything defaulted
	}
	for _, cfg := range cfgs {
		if New(cfg, "1.0.0") == nil {
			t.Fatalf("New(%+v) returned nil", cfg)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWith_ReturnsChild(t *testing.T) {
	parent := Default()
	child := parent.With("component", "api")
	if child == nil || child == parent {
		t.Fatal("With should return a distinct child logger")
	}
}

func TestRecordCarriesDefaultAttributes(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "hearth"),
			slog.String("version", "test"),
		})

	log := &Logger{Logger: slog.New(handler)}
	log.Info("session issued", "username", "admin")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	for key, want := range map[string]string{
		"service":  "hearth",
		"version":  "test",
		"msg":      "session issued",
		"username": "admin",
	} {
		if record[key] != want {
			t.Errorf("record[%q] = %v, want %q", key, record[key], want)
		}
	}
}
