package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error the pipeline can surface.
type ErrorKind int

const (
	// KindInvalidIdentifier is a decode failure. Terminal, never retried.
	KindInvalidIdentifier ErrorKind = iota + 1

	// KindFetch is a failed or non-success transport response. Retried.
	KindFetch

	// KindTimeout means the attempt deadline fired first. Retried like KindFetch.
	KindTimeout

	// KindMalformedRecord is a per-item problem. Absorbed by the normalizer.
	KindMalformedRecord
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "invalid_identifier"
	case KindFetch:
		return "fetch"
	case KindTimeout:
		return "timeout"
	case KindMalformedRecord:
		return "malformed_record"
	default:
		return "unknown"
	}
}

// Error is the only error type returned past the public query contract.
type Error struct {
	Kind ErrorKind

	// Op is the operation that failed, e.g. "decode" or "blossom list".
	Op string

	// Source is the endpoint or source name involved, if any.
	Source string

	// StatusCode is the HTTP status for Blossom failures.
	StatusCode int

	// Terminal marks a fetch error that another attempt cannot fix, such
	// as a selector naming no usable endpoint.
	Terminal bool

	Err error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Source != "" {
		msg += " " + e.Source
	}
	switch e.Kind {
	case KindInvalidIdentifier:
		msg = "invalid identifier"
		if e.Op != "" && e.Op != "decode" {
			msg += " (" + e.Op + ")"
		}
	case KindTimeout:
		msg += ": timed out"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrTimeout) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil && !t.Terminal
}

// Retryable reports whether another attempt could succeed.
func (e *Error) Retryable() bool {
	return !e.Terminal && (e.Kind == KindFetch || e.Kind == KindTimeout)
}

// Sentinels for errors.Is.
var (
	ErrInvalidIdentifier = &Error{Kind: KindInvalidIdentifier}
	ErrFetch             = &Error{Kind: KindFetch}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrMalformedRecord   = &Error{Kind: KindMalformedRecord}
)

// InvalidIdentifier wraps a decode failure.
func InvalidIdentifier(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidIdentifier, Op: "decode", Err: fmt.Errorf(format, args...)}
}

// FetchError wraps a transport failure against source.
func FetchError(op, source string, err error) *Error {
	return &Error{Kind: KindFetch, Op: op, Source: source, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
