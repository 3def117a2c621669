package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrInsufficientAmount  = errors.New("plan total does not cover outstanding balance")
	ErrTooManyMonths       = errors.New("installment count exceeds maximum")
	ErrDescriptionTooShort = errors.New("dispute description too short")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNotFound            = errors.New("entity not found")
	ErrConflict            = errors.New("conflicting concurrent modification")
	ErrDuplicateEvent      = errors.New("payment event already processed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInsufficientAmount  = "INSUFFICIENT_AMOUNT"
	ErrCodeTooManyMonths       = "TOO_MANY_MONTHS"
	ErrCodeDescriptionTooShort = "INVALID_DESCRIPTION"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeDuplicateEvent      = "DUPLICATE_EVENT"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeValidationError     = "VALIDATION_ERROR"
)

// Wrap common errors with business context

func WrapInvalidState(entity, from, op string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidState,
		fmt.Sprintf("%s cannot be %s from status %s", entity, op, from),
		ErrInvalidState,
	)
}

func WrapInsufficientAmount(total, outstanding int64) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientAmount,
		fmt.Sprintf("plan total %d does not cover outstanding balance %d", total, outstanding),
		ErrInsufficientAmount,
	)
}

func WrapTooManyMonths(months, max int) *BusinessError {
	return NewBusinessError(
		ErrCodeTooManyMonths,
		fmt.Sprintf("%d installments requested, maximum is %d", months, max),
		ErrTooManyMonths,
	)
}

func WrapDescriptionTooShort(length, min int) *BusinessError {
	return NewBusinessError(
		ErrCodeDescriptionTooShort,
		fmt.Sprintf("dispute description has %d characters, minimum is %d", length, min),
		ErrDescriptionTooShort,
	)
}

func WrapInvalidAmount(amount int64) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("invalid amount: %d", amount),
		ErrInvalidAmount,
	)
}

func WrapNotFound(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s %s not found", entity, id),
		ErrNotFound,
	)
}

func WrapConflict(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeConflict,
		fmt.Sprintf("%s %s was modified concurrently or is already resolved", entity, id),
		ErrConflict,
	)
}

func WrapDuplicateEvent(processorPaymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateEvent,
		fmt.Sprintf("payment event %s already processed", processorPaymentID),
		ErrDuplicateEvent,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
