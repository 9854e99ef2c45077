// Package apperr defines the error taxonomy shared by the repositories and
// the external-integration clients. Callers branch on Kind, not on message
// text, to choose user-visible wording and HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error along the validation/not-found/transport/
// provider/contract axis.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation rejects missing or malformed caller input before I/O.
	KindValidation
	// KindNotFound signals an absent entity, distinct from bad input.
	KindNotFound
	// KindTransport covers network and timeout failures reaching a provider.
	KindTransport
	// KindProvider covers non-success HTTP statuses with a provider message.
	KindProvider
	// KindContract covers well-transported responses whose payload does not
	// match the expected shape.
	KindContract
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	case KindProvider:
		return "provider"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

// Error is the uniform error value returned across the integration boundary.
type Error struct {
	Kind    Kind
	Message string
	// Raw preserves the offending payload for contract errors.
	Raw string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a caller-input rejection.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds an absent-entity error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a network-level failure.
func Transport(err error, format string, args ...any) *Error {
	return &Error{Kind: KindTransport, Message: fmt.Sprintf(format, args...), Err: err}
}

// Provider builds an error from a non-success provider response.
func Provider(format string, args ...any) *Error {
	return &Error{Kind: KindProvider, Message: fmt.Sprintf(format, args...)}
}

// Contract builds a payload-shape error, keeping raw for diagnosis.
func Contract(raw string, format string, args ...any) *Error {
	return &Error{Kind: KindContract, Message: fmt.Sprintf(format, args...), Raw: raw}
}

// KindOf extracts the Kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// RawOf returns the preserved raw payload when err is a contract error.
func RawOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Raw
	}
	return ""
}
