package models

import (
	"errors"
	"net/http"
)

type ErrorCode string // Вид ошибки сервиса

const (
	ErrValidation             ErrorCode = "VALIDATION_ERROR"
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrInsufficientPermission ErrorCode = "INSUFFICIENT_PERMISSIONS"
	ErrBusinessRuleViolation  ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrInvalidRole            ErrorCode = "INVALID_ROLE"
	ErrInvalidStatus          ErrorCode = "INVALID_STATUS"
	ErrDatabase               ErrorCode = "DATABASE_ERROR"
	ErrInternal               ErrorCode = "INTERNAL_ERROR"
	ErrUnauthorized           ErrorCode = "UNAUTHORIZED" // Нет или неизвестна личность вызывающего

	ErrInvalidCalculationInput ErrorCode = "INVALID_CALCULATION_INPUT"
	ErrInvalidDuration         ErrorCode = "INVALID_DURATION"
	ErrInvalidDurationType     ErrorCode = "INVALID_DURATION_TYPE"
	ErrInvalidTransportOption  ErrorCode = "INVALID_TRANSPORT_OPTION"
	ErrInvalidRateType         ErrorCode = "INVALID_RATE_TYPE"
	ErrInvalidEquipment        ErrorCode = "INVALID_EQUIPMENT_CATEGORY"
)

// ServiceError описывает ошибку с видом и сообщением.
type ServiceError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"reason"`
	Details map[string]any `json:"details,omitempty"`
}

// NewServiceError создает новую ошибку с видом и сообщением.
func NewServiceError(code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message}
}

// WithDetails добавляет к ошибке контекст.
func (e *ServiceError) WithDetails(details map[string]any) *ServiceError {
	e.Details = details
	return e
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ServiceError) Error() string {
	return e.Message
}

// Retryable сообщает, имеет ли смысл повторить операцию.
func (e *ServiceError) Retryable() bool {
	return e.Code == ErrDatabase
}

// HTTPStatus сопоставляет вид ошибки с HTTP-кодом ответа.
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrInsufficientPermission:
		return http.StatusForbidden
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrDatabase:
		return http.StatusServiceUnavailable
	case ErrInvalidTransition, ErrBusinessRuleViolation, ErrInvalidRole, ErrInvalidStatus,
		ErrInvalidCalculationInput, ErrInvalidDuration, ErrInvalidDurationType,
		ErrInvalidTransportOption, ErrInvalidRateType, ErrInvalidEquipment:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает вид ошибки или пустую строку для чужих ошибок.
func CodeOf(err error) ErrorCode {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return ""
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Code       ErrorCode `json:"code,omitempty"`
	Message    string    `json:"reason"`
}
