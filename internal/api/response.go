package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success отправляет 200 с телом как есть.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// ValidationFailed отправляет 400 с полем, которое не прошло проверку.
func ValidationFailed(w http.ResponseWriter, verr *domain.ValidationError) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
		Code:    ErrCodeValidation,
		Message: verr.Message,
		Field:   verr.Field,
	}})
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InvalidState отправляет ошибку 409.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeInvalidState, message)
}

// StoreUnavailable отправляет ошибку 503.
func StoreUnavailable(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("content store unavailable", "error", err)
	Error(w, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "content store unavailable")
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку домена или репозитория в HTTP ответ.
// Возвращает false, если err == nil.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(w, verr)
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, repo.ErrInvalidState), errors.Is(err, domain.ErrAlreadyPublished):
		InvalidState(w, err.Error())
	case errors.Is(err, repo.ErrStoreUnavailable):
		StoreUnavailable(w, logger, err)
	default:
		InternalError(w, logger, err)
	}
	return true
}
