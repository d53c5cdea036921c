package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerTo_WritesJSONWithScopes(t *testing.T) {
	var buf bytes.Buffer
	logger := WithClipID(WithJobID(WithComponent(NewLoggerTo(&buf, "info"), "lifecycle"), "job-1"), "clip-1")

	logger.Debug("hidden")
	logger.Info("visible", "progress", 40)

	var rec map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "visible" {
		t.Errorf("msg = %v, want visible", rec["msg"])
	}
	if rec["component"] != "lifecycle" || rec["job_id"] != "job-1" || rec["clip_id"] != "clip-1" {
		t.Errorf("scoped attributes missing: %v", rec)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("short"); got != "****" {
		t.Errorf("SanitizeToken(short) = %q, want ****", got)
	}
	if got := SanitizeToken("abcdefghijkl"); got != "abcd...ijkl" {
		t.Errorf("SanitizeToken() = %q, want abcd...ijkl", got)
	}
}
