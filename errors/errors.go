package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured   = errors.New("OpenAI API key not configured. Please set the OPENAI_API_KEY environment variable.")
	ErrUnknownTool     = errors.New("Assistant decided to call an unknown or unhandled function.")
	ErrInvalidToolArgs = errors.New("Error: Invalid arguments received for weather function.")

	// ErrMalformedResponse marks upstream bodies that could not be decoded or lack required data.
	ErrMalformedResponse = errors.New("malformed response")
)

// Kind classifies a failure so callers can branch without matching on message text.
type Kind int

const (
	KindNone Kind = iota
	KindConfiguration
	KindTransport
	KindMalformedResponse
	KindUnsupportedCapability
	KindUnparsableInput
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindMalformedResponse:
		return "malformed_response"
	case KindUnsupportedCapability:
		return "unsupported_capability"
	case KindUnparsableInput:
		return "unparsable_input"
	default:
		return "none"
	}
}

// Error carries a Kind and a message fit to show to a user (or to a model as tool output).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New returns an *Error of the given kind. cause may be nil.
func New(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain.
// Errors that carry no kind are reported as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}
