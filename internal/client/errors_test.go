// ABOUTME: Tests for client error classification helpers
// ABOUTME: Covers wrapped errors and the legacy expiry text match

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func asError(err error, target **Error) bool {
	return errors.As(err, target)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		body     ErrorResponse
		wantKind Kind
		wantMsg  string
	}{
		{"error field", ErrorResponse{Error: "bad day"}, KindRejected, "bad day"},
		{"message field", ErrorResponse{Message: json.RawMessage(`"nope"`)}, KindRejected, "nope"},
		{"object message falls back", ErrorResponse{Message: json.RawMessage(`{"x":1}`)}, KindRejected, "fallback"},
		{"structured expiry", ErrorResponse{Error: "x", ErrorKind: TokenExpiredKind}, KindTokenExpired, "x"},
		{"legacy expiry", ErrorResponse{Error: "Google token expired"}, KindTokenExpired, "Google token expired"},
		{"legacy expiry in message", ErrorResponse{Message: json.RawMessage(`"Google token expired"`)}, KindTokenExpired, "Google token expired"},
		{"legacy expiry behind error", ErrorResponse{Error: "Unauthorized", Message: json.RawMessage(`"Google token expired, reconnect"`)}, KindTokenExpired, "Unauthorized"},
		{"empty", ErrorResponse{}, KindRejected, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(400, tt.body, "fallback")
			if got.Kind != tt.wantKind {
				t.Errorf("kind: want %v, got %v", tt.wantKind, got.Kind)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("message: want %q, got %q", tt.wantMsg, got.Message)
			}
		})
	}
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("add class: %w", &Error{Kind: KindTokenExpired, Message: "expired"})

	if !IsTokenExpired(err) {
		t.Error("expected IsTokenExpired through wrapping")
	}
	if IsTransport(err) {
		t.Error("expiry is not a transport error")
	}
	if IsTokenExpired(errors.New("Google token expired")) {
		t.Error("plain errors are never classified")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &Error{Kind: KindTransport, Message: "cannot connect", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if err.Error() != "cannot connect: dial tcp: refused" {
		t.Errorf("unexpected text %q", err.Error())
	}
}

func TestKind_String(t *testing.T) {
	if KindTokenExpired.String() != "token_expired" || Kind(99).String() != "unknown" {
		t.Error("unexpected kind names")
	}
}
