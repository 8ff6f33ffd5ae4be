package utils

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeRateLimited  ErrorCode = "RATE_LIMITED"
	CodeServer       ErrorCode = "SERVER_ERROR"
)

// AppError is an error the API reports to clients as-is.
type AppError struct {
	Code    ErrorCode
	Message string
	Status  int
	Details any
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewNotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", Status: http.StatusNotFound}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden}
}

func NewValidation(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusUnprocessableEntity, Details: details}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Status: http.StatusConflict}
}

func NewServerError(message string) *AppError {
	return &AppError{Code: CodeServer, Message: message, Status: http.StatusInternalServerError}
}

// ToAppError maps any error onto the public taxonomy. Unknown errors become
// SERVER_ERROR so internals never leak into responses.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrorRecordNotFound) {
		return NewNotFound("record")
	}
	return NewServerError("internal server error")
}

func IsAppErrorCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
