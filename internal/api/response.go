package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Tracker/internal/depgraph"
	"github.com/shaiso/Tracker/internal/lockmgr"
	"github.com/shaiso/Tracker/internal/repo"
	"github.com/shaiso/Tracker/internal/tracker"
	"github.com/shaiso/Tracker/internal/workflow"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeCycle              ErrorCode = "CYCLIC_DEPENDENCY"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeConcurrencyTimeout ErrorCode = "CONCURRENCY_TIMEOUT"
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// Retryable — true для транзиентных отказов (таймаут блокировки):
	// повтор того же запроса может преуспеть.
	Retryable bool `json:"retryable,omitempty"`

	// Suggestions — достижимые статусы при отклонённом переходе.
	Suggestions []string `json:"suggestions,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, code ErrorCode, message string) {
	Error(w, http.StatusConflict, code, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleServiceError преобразует ошибку service-слоя в HTTP ответ.
// Возвращает true, если ошибка была обработана.
//
// Таксономия:
//   - not found → 404
//   - отклонённый переход → 422 с причиной и достижимыми статусами
//   - цикл, дубликат, конфликт состояния → 409
//   - self-dependency, неизвестный тип/статус → 400
//   - таймаут блокировки → 409, retryable
func HandleServiceError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, repo.ErrNotFound) {
		NotFound(w, notFoundMsg)
		return true
	}

	var transitionErr *tracker.TransitionError
	if errors.As(err, &transitionErr) {
		JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:        ErrCodeInvalidTransition,
				Message:     transitionErr.Result.Reason,
				Suggestions: transitionErr.Result.Suggestions,
			},
		})
		return true
	}

	if errors.Is(err, depgraph.ErrCyclicDependency) {
		Conflict(w, ErrCodeCycle, err.Error())
		return true
	}

	if errors.Is(err, depgraph.ErrTraversalDepthExceeded) {
		Conflict(w, ErrCodeConflict, err.Error())
		return true
	}

	if errors.Is(err, depgraph.ErrDuplicateDependency) || errors.Is(err, repo.ErrAlreadyExists) {
		Conflict(w, ErrCodeConflict, err.Error())
		return true
	}

	if errors.Is(err, depgraph.ErrSelfDependency) ||
		errors.Is(err, depgraph.ErrInvalidDependencyType) ||
		errors.Is(err, depgraph.ErrInvalidDirection) ||
		errors.Is(err, workflow.ErrUnknownStatus) ||
		errors.Is(err, tracker.ErrUnknownContainerType) {
		BadRequest(w, err.Error())
		return true
	}

	var concurrencyErr *lockmgr.ConcurrencyError
	if errors.As(err, &concurrencyErr) {
		JSON(w, http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{
				Code:      ErrCodeConcurrencyTimeout,
				Message:   concurrencyErr.Error(),
				Retryable: concurrencyErr.Retryable(),
			},
		})
		return true
	}

	InternalError(w, logger, err)
	return true
}
