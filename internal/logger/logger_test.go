package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSONLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "miroapi", buf), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return m
}

func TestLogger_JSONFields(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithComponent("auth").Info("user created", Fields("user_id", "abc", "ignored"))

	m := decodeLine(t, buf)
	if m["message"] != "user created" {
		t.Errorf("unexpected message: %v", m["message"])
	}
	if m["component"] != "auth" {
		t.Errorf("expected component=auth, got %v", m["component"])
	}
	if m["service"] != "miroapi" {
		t.Errorf("expected service=miroapi, got %v", m["service"])
	}
	if m["user_id"] != "abc" {
		t.Errorf("expected user_id=abc, got %v", m["user_id"])
	}
	if _, ok := m["ignored"]; ok {
		t.Error("dangling key should be dropped")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newJSONLogger(t, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newJSONLogger(t, "loud")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogger_WithContext(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-9")
	l.WithContext(ctx).Info("hello")

	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-1" || m[FieldUserID] != "user-9" {
		t.Errorf("context fields missing: %v", m)
	}
	if RequestIDFromContext(ctx) != "req-1" {
		t.Error("RequestIDFromContext mismatch")
	}
}

func TestLogger_WithError(t *testing.T) {
	l, buf := newJSONLogger(t, "info")
	l.WithError(errors.New("boom")).Error("failed")
	if m := decodeLine(t, buf); m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
}

func TestLogger_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "miroapi", buf)
	l.Info("ready")
	if !strings.Contains(buf.String(), "[INF]") {
		t.Errorf("expected console level tag, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	Nop().WithComponent("x").Error("nothing")
}

func TestFieldHelpers(t *testing.T) {
	f := ErrorFields("login", errors.New("bad"))
	if f[FieldOperation] != "login" || f[FieldError] != "bad" {
		t.Errorf("unexpected error fields %v", f)
	}
	d := DurationFields("login", 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration %v", d[FieldDuration])
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatJSON || !cfg.Timestamp {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}
