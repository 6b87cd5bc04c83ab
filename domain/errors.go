package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation           ErrorKind = "VALIDATION_ERROR"
	KindAuthentication       ErrorKind = "UNAUTHORIZED"
	KindAuthorization        ErrorKind = "FORBIDDEN"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindConflict             ErrorKind = "CONFLICT"
	KindInsufficientResource ErrorKind = "INSUFFICIENT_STOCK"
	KindStorage              ErrorKind = "STORAGE_ERROR"
	KindDependency           ErrorKind = "DEPENDENCY_ERROR"
)

// Error is the business error returned by services. Message is safe to show
// to callers; Err keeps the internal cause for server-side logs only.
type Error struct {
	Kind      ErrorKind
	Message   string
	ProductID uint64
	Err       error
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

// Storage layer sentinels. Repositories translate driver errors into these so
// services never look at driver specific codes.
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrForeignKey        = errors.New("foreign key violation")
	ErrInsufficientStock = errors.New("insufficient stock")
)

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewAuthenticationError(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func NewAuthorizationError(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NewNotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NewInsufficientStockError(productID uint64, remaining int) *Error {
	return &Error{
		Kind:      KindInsufficientResource,
		Message:   fmt.Sprintf("insufficient stock for product %d, remaining %d", productID, remaining),
		ProductID: productID,
	}
}

func NewStorageError(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

func NewDependencyError(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// KindOf reports the kind of a business error; anything unrecognised is
// treated as a storage failure.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}

func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
