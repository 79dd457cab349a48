package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestPrettyHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger = NewComponentLogger(logger, "sorter")
	logger.Info("run started", String(FieldRunID, "abc"), Int(FieldCount, 3))

	line := buf.String()
	if !strings.Contains(line, "INFO sorter: run started") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "run_id=abc") || !strings.Contains(line, "count=3") {
		t.Fatalf("missing attrs in line: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be folded into the prefix: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("moved", String(FieldFile, "tax return.pdf"))

	if !strings.Contains(buf.String(), `file="tax return.pdf"`) {
		t.Fatalf("expected quoted value, got: %q", buf.String())
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug output suppressed, got: %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("expected warn line, got: %q", buf.String())
	}
}

func TestErrorAttrToleratesNil(t *testing.T) {
	attr := Error(nil)
	if attr.Value.String() != "" {
		t.Fatalf("expected empty value for nil error, got %q", attr.Value.String())
	}
	attr = Error(errors.New("boom"))
	if attr.Value.String() != "boom" {
		t.Fatalf("expected boom, got %q", attr.Value.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RunIDFromContext(ctx); got != "" {
		t.Fatalf("expected empty run id, got %q", got)
	}
	ctx = WithRunID(ctx, "run-1")
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Fatalf("expected run-1, got %q", got)
	}

	logger := NewNop()
	ctx = WithContext(ctx, logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected stored logger back from context")
	}
}
