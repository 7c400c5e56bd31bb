package models

import (
	"errors"
	"fmt"
)

// Ошибки ядра
var (
	// ErrPriceUnavailable - исчерпаны все уровни фолбэка резолвера цен.
	// Достижима только при отключенной таблице дефолтных цен.
	ErrPriceUnavailable = errors.New("price unavailable: all fallback tiers exhausted")

	// ErrOrderNotFound - ордер с указанным id не найден в индексе
	ErrOrderNotFound = errors.New("order not found")

	// ErrEngineClosed - движок остановлен, новые ордера не принимаются
	ErrEngineClosed = errors.New("matching engine is closed")
)

// ValidationError - ошибка валидации входящего запроса
//
// Возвращается синхронно на границе API (400), до входа в pipeline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order request: %s %s", e.Field, e.Reason)
}

// NewValidationError создает ошибку валидации для поля
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError проверяет является ли ошибка ошибкой валидации
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
