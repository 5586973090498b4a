package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewValidationError("bad input", "missing field")
	want := "validation: bad input (missing field)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	plain := NewConflictError("run in flight")
	if plain.Error() != "conflict: run in flight" {
		t.Errorf("Error() = %q", plain.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError("wrapped", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestIsType(t *testing.T) {
	err := NewProcessingError("cannot decode", nil)
	if !IsType(err, ErrorTypeProcessing) {
		t.Error("IsType(processing) = false")
	}
	if IsType(err, ErrorTypeNetwork) {
		t.Error("IsType(network) = true for processing error")
	}
	if IsType(errors.New("plain"), ErrorTypeInternal) {
		t.Error("IsType matched a non-AppError")
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("v"), http.StatusBadRequest},
		{NewUnsupportedFormatError("u"), http.StatusUnsupportedMediaType},
		{NewProcessingError("p", nil), http.StatusUnprocessableEntity},
		{NewConflictError("c"), http.StatusConflict},
		{NewNotFoundError("n"), http.StatusNotFound},
		{NewNetworkError("net", nil), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := GetStatusCode(tt.err); got != tt.want {
			t.Errorf("GetStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
