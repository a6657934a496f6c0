package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

// Error carries a machine-readable code next to one of the sentinels above.
type Error struct {
	Kind error
	Code string
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Code) }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, code, msg string) error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func invalid(code, msg string) error { return fail(ErrValidation, code, msg) }

// Code returns the machine code of err, or "" when err carries none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
