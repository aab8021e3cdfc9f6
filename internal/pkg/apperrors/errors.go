package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrLifecycle      ErrorType = "LIFECYCLE"
	ErrTiming         ErrorType = "TIMING"
	ErrPayment        ErrorType = "PAYMENT"
	ErrPricing        ErrorType = "PRICING"
	ErrNoWinnings     ErrorType = "NO_WINNINGS"
	ErrAlreadyClaimed ErrorType = "ALREADY_CLAIMED"
	ErrNotFound       ErrorType = "NOT_FOUND"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the engine. Every operation
// failure is one of these; callers can switch on Type.
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
	}
}

func Newf(errType ErrorType, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

func NewUnauthorized(msg string) *AppError {
	return New(ErrUnauthorized, msg, nil)
}

func NewLifecycle(msg string) *AppError {
	return New(ErrLifecycle, msg, nil)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether err is an AppError of the given type.
func Is(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrLifecycle, ErrAlreadyClaimed:
		return http.StatusConflict
	case ErrTiming, ErrNoWinnings:
		return http.StatusUnprocessableEntity
	case ErrPayment:
		return http.StatusPaymentRequired
	case ErrPricing, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
