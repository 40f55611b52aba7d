package weather

import "fmt"

// ErrorKind classifies aggregation failures.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	KindNoData              ErrorKind = "NO_DATA"
	KindProcessing          ErrorKind = "PROCESSING"
)

// Error is the structured failure returned by the rainfall aggregation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrNoData              = &Error{Kind: KindNoData}
	ErrProcessing          = &Error{Kind: KindProcessing}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
