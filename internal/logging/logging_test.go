package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("CONDUIT_LOG_LEVEL", "debug")
	t.Setenv("CONDUIT_LOG_JSON", "true")
	o := FromEnv()
	if o.Level != "debug" || !o.JSON {
		t.Fatalf("opts = %+v", o)
	}
}

func TestFromEnv_BadJSONFlagIgnored(t *testing.T) {
	t.Setenv("CONDUIT_LOG_JSON", "not-a-bool")
	if o := FromEnv(); o.JSON {
		t.Fatal("malformed CONDUIT_LOG_JSON must leave JSON false")
	}
}

func TestConfigure_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "warn", JSON: true, Output: &buf})
	defer Configure(Options{})

	L().Info("dropped")
	L().Warn("kept", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output not a single JSON record: %q", buf.String())
	}
	if rec["msg"] != "kept" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}
}

func TestConfigure_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf})
	defer Configure(Options{})

	L().Debug("dropped")
	L().Info("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
