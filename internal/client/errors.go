// ABOUTME: Typed errors returned by the AcademiX API client
// ABOUTME: Distinguishes transport failures, server rejections and calendar token expiry

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport covers connect failures, timeouts and unreadable responses.
	KindTransport Kind = iota
	// KindRejected is a non-2xx answer from the backend.
	KindRejected
	// KindTokenExpired is a rejection caused by an expired calendar credential.
	KindTokenExpired
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindTokenExpired:
		return "token_expired"
	default:
		return "unknown"
	}
}

// TokenExpiredKind is the error_kind value the backend sends for an expired calendar token.
const TokenExpiredKind = "calendar_token_expired"

// legacyExpiryMarker is matched in error text from backends that predate error_kind.
const legacyExpiryMarker = "Google token expired"

// Error is returned by every Client method that talks to the backend.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != KindTransport:
		return fmt.Sprintf("backend error: %s", e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of a failed call. Calendar endpoints use
// "error"; document endpoints use "message".
type ErrorResponse struct {
	Error     string          `json:"error,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
}

// Text returns the human-readable reason, preferring "error" over "message".
func (r ErrorResponse) Text() string {
	if r.Error != "" {
		return r.Error
	}
	return r.messageText()
}

func (r ErrorResponse) messageText() string {
	var msg string
	if len(r.Message) > 0 && json.Unmarshal(r.Message, &msg) == nil {
		return msg
	}
	return ""
}

// expired reports whether either text field carries the expiry signal.
func (r ErrorResponse) expired() bool {
	if r.ErrorKind == TokenExpiredKind {
		return true
	}
	return strings.Contains(r.Error, legacyExpiryMarker) || strings.Contains(r.messageText(), legacyExpiryMarker)
}

// classify builds the Error for a non-2xx response.
func classify(status int, body ErrorResponse, fallback string) *Error {
	msg := body.Text()
	if msg == "" {
		msg = fallback
	}
	kind := KindRejected
	if body.expired() {
		kind = KindTokenExpired
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsTokenExpired reports whether err means the calendar credential must be discarded.
func IsTokenExpired(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTokenExpired
}

// IsTransport reports whether err never produced a usable backend answer.
func IsTransport(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransport
}

// IsRejected reports whether the backend answered with an error status,
// including token expiry.
func IsRejected(err error) bool {
	k, ok := kindOf(err)
	return ok && k != KindTransport
}
