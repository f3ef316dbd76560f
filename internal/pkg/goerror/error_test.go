package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{name: "server", err: NewServer(errors.New("db down")), want: http.StatusInternalServerError, msg: "Internal server error"},
		{name: "invalid format", err: NewInvalidFormat("Invalid secret"), want: http.StatusBadRequest, msg: "Invalid secret"},
		{name: "invalid input", err: NewInvalidInput(errors.New("v")), want: http.StatusBadRequest, msg: "Validation error"},
		{name: "not found", err: NewBusiness("User not found", CodeNotFound), want: http.StatusNotFound, msg: "User not found"},
		{name: "conflict", err: NewBusiness("Device already registered", CodeConflict), want: http.StatusConflict, msg: "Device already registered"},
		{name: "unauthorized", err: NewBusiness("invalid code", CodeUnauthorized), want: http.StatusUnauthorized, msg: "invalid code"},
		{name: "forbidden", err: NewBusiness("Account not allowed", CodeForbidden), want: http.StatusForbidden, msg: "Account not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if !errors.As(tt.err, &gerr) {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
			if got := gerr.Msg(); got != tt.msg {
				t.Fatalf("Msg() = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(nil, "device_name", "is required", "code", "must be digits")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error")
	}
	if gerr.Fields()["device_name"] != "is required" || gerr.Fields()["code"] != "must be digits" {
		t.Fatalf("fields = %v", gerr.Fields())
	}

	odd := NewInvalidInput(nil, "only-key")
	if !errors.As(odd, &gerr) || gerr.Code() != CodeInvalidFormat {
		t.Fatalf("odd kv should fall back to invalid format, got %v", odd)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("pool closed")
	err := NewServer(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("NewServer must wrap its cause")
	}
	if err.Error() != "pool closed" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if got := NewBusiness("", CodeConflict).Error(); got != "ERROR_TYPE_BUSINESS" {
		t.Fatalf("Error() without message = %q", got)
	}
}
