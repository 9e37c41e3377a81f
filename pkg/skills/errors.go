package skills

import (
	"github.com/pkg/errors"
)

// Kind classifies store failures so callers can map them to a response
type Kind int

const (
	// KindIOFailure is an underlying filesystem error surfaced as-is
	KindIOFailure Kind = iota
	// KindNotFound means the address does not resolve to an existing entry
	KindNotFound
	// KindConflict means the entry being created already exists
	KindConflict
	// KindNotEmpty means a collection still holds entries
	KindNotEmpty
	// KindBadRequest means the input is malformed or addresses an invalid path
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindNotEmpty:
		return "not_empty"
	case KindBadRequest:
		return "bad_request"
	default:
		return "io_failure"
	}
}

// Error is a classified store error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, defaulting to KindIOFailure for
// errors that did not originate in the store.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindIOFailure
}

// MessageOf returns the client-facing message for err. IO failures pass
// the underlying error text through verbatim.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		if se.Err != nil {
			return errors.Cause(se.Err).Error()
		}
	}
	return errors.Cause(err).Error()
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func badRequest(format string, args ...any) error {
	return &Error{Kind: KindBadRequest, Message: errors.Errorf(format, args...).Error()}
}

func ioFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindIOFailure, Err: errors.Wrap(err, msg)}
}
