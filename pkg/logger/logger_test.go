package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level Level, format string) (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	levelVar := &slog.LevelVar{}
	levelVar.Set(slogLevel(level))
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(buf, opts)
	} else {
		handler = slog.NewJSONHandler(buf, opts)
	}
	return &SlogLogger{logger: slog.New(handler), level: levelVar}, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(WarnLevel, "json")

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("suppressed levels leaked: %s", out)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["msg"] != "visible" || entry["key"] != "value" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestSetLevel(t *testing.T) {
	log, buf := newBufferLogger(ErrorLevel, "json")

	log.Info("before")
	if buf.Len() != 0 {
		t.Fatalf("info logged at error level: %s", buf.String())
	}

	log.SetLevel(DebugLevel)
	log.Debug("after")
	if !strings.Contains(buf.String(), "after") {
		t.Fatal("debug suppressed after SetLevel")
	}
}

func TestWithCarriesAttributes(t *testing.T) {
	log, buf := newBufferLogger(InfoLevel, "json")

	log.With("channel", "ecg").Info("sampled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["channel"] != "ecg" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestGlobalDefault(t *testing.T) {
	if Global() == nil {
		t.Fatal("no default global logger")
	}
}
