package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mbtagger/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "lookup", "fetch release", "request failed", base)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"lookup", "fetch release", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, services.ExitOK},
		{"validation", services.Wrap(services.ErrValidation, "cli", "flags", "bad", nil), services.ExitUsage},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil), services.ExitUsage},
		{"not found", services.Wrap(services.ErrNotFound, "lookup", "release", "missing", nil), services.ExitNotFound},
		{"external", services.Wrap(services.ErrExternal, "lookup", "release", "503", nil), services.ExitExternal},
		{"timeout", fmt.Errorf("outer: %w", services.ErrTimeout), services.ExitExternal},
		{"aborted", services.ErrAborted, services.ExitAborted},
		{"partial", fmt.Errorf("write: %w", services.ErrPartialWrite), services.ExitPartialWrites},
		{"other", errors.New("disk"), services.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
