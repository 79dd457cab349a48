package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrServiceUnavailable, "ollama", "generate", "request failed", cause)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"ollama", "generate", "request failed", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %q", want, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrInvalidCategory, "classify", "validate", "category not in taxonomy", nil)
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsRecoverable(t *testing.T) {
	if IsRecoverable(Wrap(ErrConfiguration, "config", "validate", "bad path", nil)) {
		t.Fatal("configuration errors should not be recoverable")
	}
	for _, marker := range []error{ErrServiceUnavailable, ErrTimeout, ErrMalformedResponse, ErrUnreadable, ErrMoveFailed, ErrSkipped} {
		if !IsRecoverable(Wrap(marker, "x", "y", "z", nil)) {
			t.Fatalf("expected %v to be recoverable", marker)
		}
	}
}
