package domain

import (
	"errors"
	"fmt"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
)

// AppError представляет доменную ошибку приложения.
type AppError struct {
	Code    errcodes.ErrorCode
	Message string
	cause   error
}

// Error реализует интерфейс error.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap возвращает обёрнутую ошибку для errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.cause
}

// ErrorCode реализует errcodes.Coder.
func (e *AppError) ErrorCode() errcodes.ErrorCode {
	return e.Code
}

// NewError создаёт новую доменную ошибку.
func NewError(code errcodes.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WrapError оборачивает существующую ошибку с доменным контекстом.
func WrapError(err error, code errcodes.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

// IsAppError проверяет, является ли ошибка доменной.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode извлекает код ошибки, если это AppError.
func GetCode(err error) (errcodes.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// HasCode проверяет, что в цепочке есть AppError с указанным кодом.
func HasCode(err error, code errcodes.ErrorCode) bool {
	got, ok := GetCode(err)
	return ok && got == code
}
