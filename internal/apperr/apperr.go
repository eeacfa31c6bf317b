// Package apperr classifies failures returned by the gateway and the service
// layer so that callers can branch on the kind of failure with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinels for the four failure kinds. Every classified error matches exactly
// one of them through errors.Is.
var (
	ErrValidation = errors.New("validation failure")
	ErrAccess     = errors.New("access failure")
	ErrNotFound   = errors.New("not found")
	ErrPartial    = errors.New("partial failure")
)

// Kind identifies a failure class.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAccess
	KindNotFound
	KindPartial
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAccess:
		return "access"
	case KindNotFound:
		return "not_found"
	case KindPartial:
		return "partial"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAccess:
		return ErrAccess
	case KindNotFound:
		return ErrNotFound
	case KindPartial:
		return ErrPartial
	default:
		return nil
	}
}

// Error is a classified failure. Op names the operation that failed, Msg is a
// user-facing description and Err an optional underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Validation returns a validation failure with the given message. It is used
// both inline and to declare package-level sentinel errors.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Access wraps a gateway rejection or connectivity problem.
func Access(op string, err error) error {
	return &Error{Kind: KindAccess, Op: op, Err: err}
}

// NotFound reports that an owner-scoped lookup or mutation matched no row.
func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: what + " not found"}
}

// PartialError reports an attachment operation where the blob and its metadata
// record diverged. BlobLeaked is true when a blob is left with no record
// pointing at it; false means a record remains whose blob is already gone.
type PartialError struct {
	Op         string
	Path       string
	BlobLeaked bool
	Err        error
	CleanupErr error
}

func (e *PartialError) Error() string {
	state := "record left without blob"
	if e.BlobLeaked {
		state = "blob leaked"
	}
	msg := fmt.Sprintf("%s: %s at %q: %v", e.Op, state, e.Path, e.Err)
	if e.CleanupErr != nil {
		msg += fmt.Sprintf(" (cleanup: %v)", e.CleanupErr)
	}
	return msg
}

func (e *PartialError) Unwrap() []error {
	errs := []error{e.Err}
	if e.CleanupErr != nil {
		errs = append(errs, e.CleanupErr)
	}
	return errs
}

func (e *PartialError) Is(target error) bool { return target == ErrPartial }

// KindOf classifies err. Partial wins over the kinds of any wrapped causes.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrPartial):
		return KindPartial
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAccess):
		return KindAccess
	default:
		return KindUnknown
	}
}

// Message returns the user-facing text of a classified error, falling back to
// err.Error() for everything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
