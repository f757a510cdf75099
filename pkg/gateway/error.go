package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	// KindTransport means the request never reached the backend or the
	// response never came back.
	KindTransport Kind = "transport"
	// KindUnauthorized is a 401/403: the bearer credential was rejected.
	KindUnauthorized Kind = "unauthorized"
	// KindBackend is any other non-2xx status, or a success:false body.
	KindBackend Kind = "backend"
	// KindDecode means a 2xx body could not be decoded.
	KindDecode Kind = "decode"
	// KindAmbiguous means an assistant reply matched no known shape.
	KindAmbiguous Kind = "ambiguous"
)

// Error is the only error type returned by Remote and Assistant.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("gateway: %s: %v", msg, e.Cause)
	}
	return "gateway: " + msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func defaultMessage(k Kind) string {
	switch k {
	case KindTransport:
		return "could not reach the calendar service"
	case KindUnauthorized:
		return "your session has expired, please sign in again"
	case KindBackend:
		return "the calendar service reported an error"
	case KindDecode:
		return "the calendar service sent an unreadable response"
	case KindAmbiguous:
		return "the assistant's reply could not be understood"
	}
	return "request failed"
}

// Message returns the stable human-readable string for err. Non-gateway
// errors fall back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		if errors.Is(gerr.Cause, context.Canceled) {
			return "request cancelled"
		}
		if errors.Is(gerr.Cause, context.DeadlineExceeded) {
			return "request timed out"
		}
		if gerr.Message != "" {
			return gerr.Message
		}
		return defaultMessage(gerr.Kind)
	}
	return err.Error()
}

// IsKind reports whether err is a gateway error of kind k.
func IsKind(err error, k Kind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == k
}

func transportError(op string, cause error) *Error {
	return &Error{Kind: KindTransport, Op: op, Cause: cause}
}

func decodeError(op string, cause error) *Error {
	return &Error{Kind: KindDecode, Op: op, Cause: cause}
}
