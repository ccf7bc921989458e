package service

import (
	"errors"
	"fmt"

	"github.com/good-yellow-bee/synergy/internal/storage"
)

// Kind classifies service failures.
type Kind int

const (
	KindStore Kind = iota
	KindUnauthenticated
	KindAccessDenied
	KindNotFound
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "store"
	}
}

// Error is returned by every service operation that fails.
type Error struct {
	Kind    Kind
	Field   string // set for validation failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare kind sentinel such as ErrAccessDenied.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrStore           = &Error{Kind: KindStore}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrAccessDenied    = &Error{Kind: KindAccessDenied}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
)

// KindOf returns the Kind of err, or KindStore for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

func denied(msg string) error {
	return &Error{Kind: KindAccessDenied, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func invalid(field, msg string) error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// storeErr classifies a storage failure. Uniqueness violations surface as
// Conflict, everything else as Store.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, storage.ErrDuplicate) {
		return &Error{Kind: KindConflict, Message: op + ": already exists", Err: err}
	}
	return &Error{Kind: KindStore, Message: op, Err: err}
}
