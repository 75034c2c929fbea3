package domain

import "fmt"

// Error codes returned to API clients. The transport layer maps these onto
// HTTP status codes; clients branch on Code, never on message text.
const (
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeValidation       = "validation_failed"
	ErrCodeConfirmRequired  = "confirm_required"
	ErrCodePriceBlocked     = "price_blocked"
	ErrCodeNotYourTurn      = "not_your_turn"
	ErrCodeExpired          = "expired"
	ErrCodeInternal         = "internal"
)

// Error is a coded domain error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a coded error with a formatted message.
func NewError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidationError is shorthand for a validation_failed error.
func ValidationError(format string, args ...interface{}) *Error {
	return NewError(ErrCodeValidation, format, args...)
}

// NotFoundError is shorthand for a not_found error.
func NotFoundError(format string, args ...interface{}) *Error {
	return NewError(ErrCodeNotFound, format, args...)
}
