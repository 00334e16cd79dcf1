package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  *Error
		kind ErrorKind
	}{
		{ValidationError("v"), KindValidation},
		{NotFoundError("n"), KindNotFound},
		{PermissionError("p"), KindPermission},
		{InvalidStateError("i"), KindInvalidState},
		{ConflictError("c"), KindConflict},
	}

	for _, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("got kind %q, want %q", tt.err.Kind, tt.kind)
		}
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("creating booking: %w", ConflictError("seat already taken"))

	var svcErr *Error
	if !errors.As(wrapped, &svcErr) {
		t.Fatal("errors.As should unwrap *Error")
	}
	if svcErr.Kind != KindConflict {
		t.Errorf("kind = %q, want conflict", svcErr.Kind)
	}
	if svcErr.Error() != "seat already taken" {
		t.Errorf("message = %q", svcErr.Error())
	}
}
