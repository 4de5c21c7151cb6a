package types

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAppErrorMessage(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"message only", NewAppError(ErrIO, "write failed", nil), "write failed"},
		{"with cause", NewAppError(ErrIO, "write failed", cause), "write failed: disk full"},
		{"with details", NewAppErrorWithDetails(ErrIdentityNotFound, "shape missing", "slide 2 shape 42", nil), "shape missing: slide 2 shape 42"},
		{"formatted", Errorf(ErrStructuralMismatch, "expected %d texts, got %d", 3, 2), "expected 3 texts, got 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	base := NewAppError(ErrAPIRateLimit, "429", nil)
	wrapped := fmt.Errorf("batch 3: %w", base)

	if got := CodeOf(wrapped); got != ErrAPIRateLimit {
		t.Errorf("CodeOf(wrapped) = %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %s", got)
	}
	if !IsCode(wrapped, ErrAPIRateLimit) || IsCode(nil, ErrAPIRateLimit) {
		t.Error("IsCode mismatch")
	}
	if !errors.Is(NewAppError(ErrIO, "x", base), base) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestTransient(t *testing.T) {
	for code, want := range map[ErrorCode]bool{
		ErrNetwork:            true,
		ErrAPIRateLimit:       true,
		ErrAPICall:            false,
		ErrStructuralMismatch: false,
		ErrIO:                 false,
	} {
		if got := code.Transient(); got != want {
			t.Errorf("%s.Transient() = %v, want %v", code, got, want)
		}
	}
}

func TestConfigDurations(t *testing.T) {
	c := &Config{InterBatchDelayMs: 200, RequestTimeoutSec: 90}
	if c.InterBatchDelay() != 200*time.Millisecond {
		t.Errorf("InterBatchDelay() = %v", c.InterBatchDelay())
	}
	if c.RequestTimeout() != 90*time.Second {
		t.Errorf("RequestTimeout() = %v", c.RequestTimeout())
	}
}
