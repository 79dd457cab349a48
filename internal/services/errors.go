package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrUnreadable         = errors.New("unreadable file")
	ErrMoveFailed         = errors.New("move failed")
	ErrConfiguration      = errors.New("configuration error")
	ErrSkipped            = errors.New("skipped")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrServiceUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRecoverable reports whether a per-file failure should let the run keep
// going. Configuration problems abort the run; everything else is routed to a
// fallback and counted.
func IsRecoverable(err error) bool {
	return !errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
