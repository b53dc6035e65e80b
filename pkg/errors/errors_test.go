package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad format: %s", "xml")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("code = %s, want %s", err.Code, ErrCodeInvalidInput)
	}
	if !strings.Contains(err.Error(), "INVALID_INPUT") {
		t.Errorf("error string missing code: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "bad format: xml") {
		t.Errorf("error string missing message: %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch trace")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error must match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error string missing cause: %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeModelUnavailable, "model offline")

	if !Is(err, ErrCodeModelUnavailable) {
		t.Error("Is failed for direct error")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is matched wrong code")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodeModelUnavailable) {
		t.Error("Is failed through fmt.Errorf wrapping")
	}

	if Is(stderrors.New("plain"), ErrCodeNetwork) {
		t.Error("Is matched a plain error")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeTimeout, "slow")); got != ErrCodeTimeout {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeTimeout)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %s, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeTraceUnavailable, "no trace for session")
	if got := UserMessage(err); got != "no trace for session" {
		t.Errorf("UserMessage = %q", got)
	}
	plain := stderrors.New("boom")
	if got := UserMessage(plain); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
