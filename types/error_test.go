package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "scoring service failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithMetric("bertscore")

	if GetErrorCode(err) != ErrUpstreamError {
		t.Fatalf("expected code %s, got %s", ErrUpstreamError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got != "[UPSTREAM_ERROR] scoring service failed: root" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestError_WrappedClassification(t *testing.T) {
	t.Parallel()

	inner := Errorf(ErrLengthMismatch, "references=%d candidates=%d", 2, 1)
	wrapped := fmt.Errorf("score rouge: %w", inner)

	if !IsCode(wrapped, ErrLengthMismatch) {
		t.Fatalf("expected wrapped error to carry %s", ErrLengthMismatch)
	}
	if IsRetryable(wrapped) {
		t.Fatalf("length mismatch must not be retryable")
	}
	if got := inner.Error(); got != "[LENGTH_MISMATCH] references=2 candidates=1" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestError_PlainErrors(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")
	if GetErrorCode(plain) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if IsRetryable(plain) {
		t.Fatalf("plain errors are not retryable")
	}
	if _, ok := AsError(nil); ok {
		t.Fatalf("nil is not a *Error")
	}
}
