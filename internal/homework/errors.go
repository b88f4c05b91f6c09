package homework

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure kinds the bot distinguishes.
type Kind int

const (
	KindUnknown Kind = iota
	// KindEndpoint: transport or status-code failure talking to the status API.
	KindEndpoint
	// KindMissingField: a required key is absent in a response or record.
	KindMissingField
	// KindTypeMismatch: a response or field has the wrong shape.
	KindTypeMismatch
	// KindUnknownVerdict: the status code is not a known verdict.
	KindUnknownVerdict
	// KindDelivery: the messaging API rejected or failed to send.
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindEndpoint:
		return "endpoint"
	case KindMissingField:
		return "missing_field"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindUnknownVerdict:
		return "unknown_verdict"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrEndpoint       = &Error{Kind: KindEndpoint}
	ErrMissingField   = &Error{Kind: KindMissingField}
	ErrTypeMismatch   = &Error{Kind: KindTypeMismatch}
	ErrUnknownVerdict = &Error{Kind: KindUnknownVerdict}
	ErrDelivery       = &Error{Kind: KindDelivery}
)

// Error is the single error type for every Kind.
//
// Field names the offending key for MissingField/TypeMismatch, Value carries
// the rejected verdict, Status the HTTP status for Endpoint failures, and Err
// the underlying transport/decode/delivery error.
type Error struct {
	Kind   Kind
	Op     string
	Field  string
	Value  string
	Status int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindEndpoint:
		b.WriteString("status API unavailable")
		if e.Status != 0 {
			fmt.Fprintf(&b, ": unexpected status %d", e.Status)
		}
	case KindMissingField:
		fmt.Fprintf(&b, "missing key %q", e.Field)
	case KindTypeMismatch:
		if e.Field == "" {
			b.WriteString("unexpected response type")
		} else {
			fmt.Fprintf(&b, "unexpected type of %q", e.Field)
		}
		if e.Value != "" {
			fmt.Fprintf(&b, ": got %s", e.Value)
		}
	case KindUnknownVerdict:
		fmt.Fprintf(&b, "unknown homework status %q", e.Value)
	case KindDelivery:
		b.WriteString("message delivery failed")
	default:
		b.WriteString("error")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, ErrMissingField) works for any
// MissingField error regardless of its details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// EndpointError wraps a transport or decode failure from the status API.
func EndpointError(err error) error {
	return &Error{Kind: KindEndpoint, Op: "get_api_answer", Err: err}
}

// EndpointStatusError reports a non-200 response from the status API.
func EndpointStatusError(status int) error {
	return &Error{Kind: KindEndpoint, Op: "get_api_answer", Status: status}
}

// DeliveryError wraps a messaging API failure.
func DeliveryError(err error) error {
	return &Error{Kind: KindDelivery, Op: "send_message", Err: err}
}
