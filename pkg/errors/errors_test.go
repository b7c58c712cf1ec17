package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidFlow, "test message: %s", "value")

	if err.Code != ErrCodeInvalidFlow {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFlow)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_FLOW: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeStorage, cause, "save flow")

	if err.Code != ErrCodeStorage {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStorage)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got, want := err.Error(), "STORAGE_FAILED: save flow: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidFlow, "x"), ErrCodeInvalidFlow, true},
		{"different code", New(ErrCodeInvalidFlow, "x"), ErrCodeStorage, false},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrCodeStateNotFound, "x")), ErrCodeStateNotFound, true},
		{"plain error", errors.New("x"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeFlowNotFound, "x")); got != ErrCodeFlowNotFound {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeFlowNotFound)
	}
	if got := GetCode(errors.New("x")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidFlow, "missing states")); got != "missing states" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code     Code
		notFound bool
		invalid  bool
	}{
		{ErrCodeInvalidInput, false, true},
		{ErrCodeInvalidFlow, false, true},
		{ErrCodeInvalidState, false, true},
		{ErrCodeInvalidFormat, false, true},
		{ErrCodeInvalidPath, false, true},
		{ErrCodeNotFound, true, false},
		{ErrCodeFlowNotFound, true, false},
		{ErrCodeStateNotFound, true, false},
		{ErrCodeSampleNotFound, true, false},
		{ErrCodeStorage, false, false},
		{ErrCodeInternal, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x")
			if got := IsNotFound(err); got != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.notFound)
			}
			if got := IsInvalid(err); got != tt.invalid {
				t.Errorf("IsInvalid() = %v, want %v", got, tt.invalid)
			}
		})
	}
}
