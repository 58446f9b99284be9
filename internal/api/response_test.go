package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/depgraph"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/lockmgr"
	"github.com/shaiso/Tracker/internal/repo"
	"github.com/shaiso/Tracker/internal/tracker"
	"github.com/shaiso/Tracker/internal/workflow"
)

// decodeError извлекает тело ответа с ошибкой.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func TestHandleServiceError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()

	if HandleServiceError(rec, slog.Default(), nil, "") {
		t.Error("nil error should not be handled")
	}
}

func TestHandleServiceError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()

	handled := HandleServiceError(rec, slog.Default(),
		fmt.Errorf("get task: %w", repo.ErrNotFound), "task not found")
	if !handled {
		t.Fatal("error should be handled")
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	detail := decodeError(t, rec)
	if detail.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", detail.Code)
	}
	if detail.Message != "task not found" {
		t.Errorf("unexpected message: %s", detail.Message)
	}
}

func TestHandleServiceError_InvalidTransition(t *testing.T) {
	rec := httptest.NewRecorder()

	err := &tracker.TransitionError{
		ContainerType: domain.ContainerTypeTask,
		ContainerID:   uuid.New(),
		Requested:     "completed",
		Result: workflow.Result{
			Outcome:     workflow.OutcomeInvalid,
			Reason:      `no transition pending → completed in flow "with-review"`,
			Suggestions: []string{"cancelled", "planned"},
		},
	}

	HandleServiceError(rec, slog.Default(), err, "")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	detail := decodeError(t, rec)
	if detail.Code != ErrCodeInvalidTransition {
		t.Errorf("expected INVALID_TRANSITION, got %s", detail.Code)
	}
	if len(detail.Suggestions) != 2 {
		t.Errorf("expected reachable statuses in response, got %v", detail.Suggestions)
	}
}

func TestHandleServiceError_Cycle(t *testing.T) {
	rec := httptest.NewRecorder()

	a, b := uuid.New(), uuid.New()
	err := &depgraph.CycleError{From: a, To: b, Path: []uuid.UUID{a, b, a}}

	HandleServiceError(rec, slog.Default(), err, "")

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != ErrCodeCycle {
		t.Errorf("expected CYCLIC_DEPENDENCY, got %s", detail.Code)
	}
}

func TestHandleServiceError_Duplicate(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleServiceError(rec, slog.Default(), depgraph.ErrDuplicateDependency, "")

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != ErrCodeConflict {
		t.Errorf("expected CONFLICT, got %s", detail.Code)
	}
}

func TestHandleServiceError_BadRequestFamily(t *testing.T) {
	cases := []error{
		depgraph.ErrSelfDependency,
		depgraph.ErrInvalidDependencyType,
		depgraph.ErrInvalidDirection,
		workflow.ErrUnknownStatus,
		tracker.ErrUnknownContainerType,
	}

	for _, err := range cases {
		rec := httptest.NewRecorder()
		HandleServiceError(rec, slog.Default(), err, "")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", err, rec.Code)
		}
	}
}

func TestHandleServiceError_ConcurrencyTimeout(t *testing.T) {
	rec := httptest.NewRecorder()

	err := &lockmgr.ConcurrencyError{
		Operation:  "transition_status",
		EntityType: domain.ContainerTypeTask,
		EntityID:   uuid.New(),
		Err:        lockmgr.ErrWaitTimeout,
	}

	HandleServiceError(rec, slog.Default(), err, "")

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	detail := decodeError(t, rec)
	if detail.Code != ErrCodeConcurrencyTimeout {
		t.Errorf("expected CONCURRENCY_TIMEOUT, got %s", detail.Code)
	}
	if !detail.Retryable {
		t.Error("concurrency timeout should be marked retryable")
	}
}

func TestHandleServiceError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleServiceError(rec, slog.Default(), errors.New("disk on fire"), "")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	detail := decodeError(t, rec)
	// Внутренние детали не протекают наружу
	if detail.Message != "internal server error" {
		t.Errorf("internal details should not leak: %s", detail.Message)
	}
}
