// Package apperr defines the error taxonomy shared by every service.
//
// Each error carries one of five kinds, exposed as sentinels so callers can
// branch with errors.Is. Kinds survive service boundaries: web encodes them into
// problem details and httpclient decodes them back.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation error")
	ErrDependency = errors.New("dependency failure")
	ErrInternal   = errors.New("internal error")
)

// Reasons refine a kind so clients can tell terminal failures apart.
const (
	ReasonItemNotFound      = "ITEM_NOT_FOUND"
	ReasonItemOffSale       = "ITEM_OFF_SALE"
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
	ReasonCartFull          = "CART_FULL"
	ReasonOrderNotFound     = "ORDER_NOT_FOUND"
	ReasonAlreadyRestored   = "ALREADY_RESTORED"
)

type Error struct {
	Kind    error
	Entity  string
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NotFound(entity, message string) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, Message: message}
}

func Conflict(entity, message string) *Error {
	return &Error{Kind: ErrConflict, Entity: entity, Message: message}
}

func Validation(entity, message string) *Error {
	return &Error{Kind: ErrValidation, Entity: entity, Message: message}
}

func Dependency(entity string, err error) *Error {
	return &Error{Kind: ErrDependency, Entity: entity, Message: entity + " unavailable", Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: ErrInternal, Message: message, Err: err}
}

func (e *Error) WithReason(reason string) *Error {
	e.Reason = reason
	return e
}

// Wrap keeps the kind and reason of err but adds context to the message.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Kind:    appErr.Kind,
			Entity:  appErr.Entity,
			Reason:  appErr.Reason,
			Message: fmt.Sprintf(format, args...),
			Err:     err,
		}
	}
	return Internal(fmt.Sprintf(format, args...), err)
}

// KindOf returns the kind of the outermost *Error in the chain, ErrInternal
// for anything else.
func KindOf(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

func ReasonOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

func IsKind(err, kind error) bool {
	return err != nil && KindOf(err) == kind
}

var kindNames = map[error]string{
	ErrNotFound:   "NotFound",
	ErrConflict:   "Conflict",
	ErrValidation: "ValidationError",
	ErrDependency: "DependencyFailure",
	ErrInternal:   "Internal",
}

func KindName(kind error) string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return kindNames[ErrInternal]
}

func KindFromName(name string) (error, bool) {
	for kind, n := range kindNames {
		if n == name {
			return kind, true
		}
	}
	return nil, false
}
