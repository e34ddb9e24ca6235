package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsTypeSeesThroughWrapping(t *testing.T) {
	base := Input("base price must not be negative")
	wrapped := fmt.Errorf("resolve sku-1: %w", base)

	if !IsType(wrapped, TypeInput) {
		t.Fatalf("expected wrapped error to be TypeInput")
	}
	if IsType(wrapped, TypeNotFound) {
		t.Errorf("wrapped input error reported as not found")
	}
	if got := TypeOf(wrapped); got != TypeInput {
		t.Errorf("TypeOf = %s, want %s", got, TypeInput)
	}
}

func TestTypeOfPlainError(t *testing.T) {
	if got := TypeOf(stderrors.New("boom")); got != TypeInternal {
		t.Errorf("TypeOf(plain) = %s, want %s", got, TypeInternal)
	}
}

func TestErrorMessage(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Storage("load product", cause).WithContext("sku", "sku-1")

	want := "[STORAGE_ERROR] load product: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, cause) {
		t.Errorf("expected errors.Is to reach the cause")
	}
	if err.Context["sku"] != "sku-1" {
		t.Errorf("context not recorded: %v", err.Context)
	}
}
