package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNodeNotFound, "no artifact %q", "app.main")

	if err.Code != ErrCodeNodeNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeNodeNotFound)
	}
	want := `NODE_NOT_FOUND: no artifact "app.main"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("stat /missing: no such file or directory")
	err := Wrap(ErrCodeRootNotFound, cause, "root %q", "/missing")

	if !strings.Contains(err.Error(), "no such file") {
		t.Errorf("Error() should include cause, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnsupportedFamily, "no strategy for family %q", "cobol")

	if !Is(err, ErrCodeUnsupportedFamily) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeNodeNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("Is should not match a plain error")
	}

	// Code survives fmt.Errorf wrapping.
	wrapped := fmt.Errorf("lookup failed: %w", err)
	if !Is(wrapped, ErrCodeUnsupportedFamily) {
		t.Error("Is should unwrap through fmt.Errorf chains")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidFormat, "bad format")); got != ErrCodeInvalidFormat {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeInvalidFormat)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "unknown export format %q", "yaml")
	if got := UserMessage(err); got != `unknown export format "yaml"` {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
