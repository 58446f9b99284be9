package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
	"github.com/shaiso/Tracker/internal/tracker"
)

// parseContainerRef извлекает тип и id контейнера из path.
func parseContainerRef(r *http.Request) (domain.ContainerType, uuid.UUID, bool) {
	containerType, ok := domain.ParseContainerType(r.PathValue("type"))
	if !ok {
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return "", uuid.Nil, false
	}

	return containerType, id, true
}

// TransitionStatus применяет переход статуса контейнера.
// POST /api/v1/containers/{type}/{id}/transition
func (h *Handler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	containerType, id, ok := parseContainerRef(r)
	if !ok {
		BadRequest(w, "invalid container type or id")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Status == "" {
		BadRequest(w, "status is required")
		return
	}

	result, err := h.service.TransitionStatus(r.Context(), containerType, id, req.Status)
	if err != nil && HandleServiceError(w, h.logger, err, "container not found") {
		return
	}

	Success(w, result)
}

// ValidateTransition выполняет dry-run валидацию перехода.
// POST /api/v1/containers/{type}/{id}/validate
//
// Отклонённый переход здесь — не ошибка: результат с outcome=invalid
// возвращается с кодом 200.
func (h *Handler) ValidateTransition(w http.ResponseWriter, r *http.Request) {
	containerType, id, ok := parseContainerRef(r)
	if !ok {
		BadRequest(w, "invalid container type or id")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Status == "" {
		BadRequest(w, "status is required")
		return
	}

	result, err := h.service.ValidateTransition(r.Context(), containerType, id, req.Status)
	if HandleServiceError(w, h.logger, err, "container not found") {
		return
	}

	Success(w, result)
}

// NextStatus вычисляет следующий статус контейнера.
// GET /api/v1/containers/{type}/{id}/next?event=...
func (h *Handler) NextStatus(w http.ResponseWriter, r *http.Request) {
	containerType, id, ok := parseContainerRef(r)
	if !ok {
		BadRequest(w, "invalid container type or id")
		return
	}

	next, err := h.service.NextStatus(r.Context(), containerType, id, r.URL.Query().Get("event"))
	if HandleServiceError(w, h.logger, err, "container not found") {
		return
	}

	Success(w, NextStatusResponse{
		Flow:      next.Flow,
		Target:    next.Target,
		Found:     next.Found,
		Automatic: next.Automatic,
		Requires:  next.Requires,
	})
}

// ReachableStatuses возвращает статусы, достижимые из текущего.
// GET /api/v1/containers/{type}/{id}/reachable
func (h *Handler) ReachableStatuses(w http.ResponseWriter, r *http.Request) {
	containerType, id, ok := parseContainerRef(r)
	if !ok {
		BadRequest(w, "invalid container type or id")
		return
	}

	container, err := h.service.GetContainer(r.Context(), containerType, id)
	if HandleServiceError(w, h.logger, err, "container not found") {
		return
	}

	reachable, err := h.service.ReachableStatuses(r.Context(), containerType, id)
	if HandleServiceError(w, h.logger, err, "container not found") {
		return
	}

	Success(w, ReachableResponse{
		Current:   container.Status,
		Reachable: reachable,
	})
}

// AllowedStatuses возвращает допустимые статус-литералы для типа.
// GET /api/v1/containers/{type}/statuses
func (h *Handler) AllowedStatuses(w http.ResponseWriter, r *http.Request) {
	containerType, ok := domain.ParseContainerType(r.PathValue("type"))
	if !ok {
		BadRequest(w, "invalid container type")
		return
	}

	Success(w, AllowedStatusesResponse{
		ContainerType: string(containerType),
		Statuses:      h.service.AllowedStatuses(containerType),
	})
}

// DetectCascade возвращает каскадные рекомендации для родителя контейнера.
// GET /api/v1/containers/{type}/{id}/cascade
func (h *Handler) DetectCascade(w http.ResponseWriter, r *http.Request) {
	containerType, id, ok := parseContainerRef(r)
	if !ok {
		BadRequest(w, "invalid container type or id")
		return
	}

	events, err := h.service.DetectCascade(r.Context(), id, containerType)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownContainerType) {
			BadRequest(w, err.Error())
			return
		}
		if HandleServiceError(w, h.logger, err, "container not found") {
			return
		}
	}

	List(w, events, len(events))
}
