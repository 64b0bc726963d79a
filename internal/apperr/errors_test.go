package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/auricast/auricast/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("field is required")

	if err.Error() != "field is required" {
		t.Errorf("expected 'field is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("parse failed")
	err := apperr.NewValidationWrap("invalid expression", inner)

	if err.Error() != "invalid expression: parse failed" {
		t.Errorf("expected 'invalid expression: parse failed', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("empty source url")

	wrapped := fmt.Errorf("failed to ingest: %w", original)
	doubleWrapped := fmt.Errorf("adapter error: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "empty source url" {
		t.Errorf("expected 'empty source url', got %q", ve.Message)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", apperr.NewTransientWrap("embed timeout", errors.New("deadline exceeded")), true},
		{"transient wrapped", fmt.Errorf("stage failed: %w", apperr.NewTransientWrap("rate limited", errors.New("429"))), true},
		{"validation", apperr.NewValidation("missing text"), false},
		{"integrity", apperr.NewIntegrity("embedding dimension mismatch"), false},
		{"not found", apperr.NewNotFound("content"), false},
		{"conflict", apperr.NewConflict("chunk already written"), false},
		{"unknown", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	err := fmt.Errorf("record interaction: %w", apperr.NewConflict("already recorded"))
	if !apperr.IsConflict(err) {
		t.Error("expected IsConflict to see through wrapping")
	}
	if apperr.IsConflict(errors.New("plain")) {
		t.Error("plain error should not be a conflict")
	}
}

func TestIsNotFound(t *testing.T) {
	err := fmt.Errorf("archive: %w", apperr.NewNotFound("feed item"))
	if !apperr.IsNotFound(err) {
		t.Error("expected IsNotFound to see through wrapping")
	}
}
