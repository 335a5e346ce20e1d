package apperr

import (
	"errors"
	"fmt"
)

// Kind discriminates core error categories so handlers can map them to
// HTTP statuses without string matching.
type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindNotFound
	KindAuthorization
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsValidation(err error) bool    { return IsKind(err, KindValidation) }
func IsConflict(err error) bool      { return IsKind(err, KindConflict) }
func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsAuthorization(err error) bool { return IsKind(err, KindAuthorization) }
