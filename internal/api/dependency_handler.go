package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Tracker/internal/domain"
)

// CreateDependency создаёт ребро зависимости между tasks.
// POST /api/v1/dependencies
func (h *Handler) CreateDependency(w http.ResponseWriter, r *http.Request) {
	var req CreateDependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	from, err := uuid.Parse(req.FromTaskID)
	if err != nil {
		BadRequest(w, "invalid from_task_id")
		return
	}
	to, err := uuid.Parse(req.ToTaskID)
	if err != nil {
		BadRequest(w, "invalid to_task_id")
		return
	}

	dep, err := h.service.CreateDependency(r.Context(), from, to, domain.DependencyType(req.Type))
	if HandleServiceError(w, h.logger, err, "task not found") {
		return
	}

	Created(w, dep)
}

// GetDependency возвращает ребро по ID.
// GET /api/v1/dependencies/{id}
func (h *Handler) GetDependency(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid dependency id")
		return
	}

	dep, err := h.service.GetDependency(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "dependency not found") {
		return
	}

	Success(w, dep)
}

// DeleteDependency удаляет ребро по ID.
// DELETE /api/v1/dependencies/{id}
func (h *Handler) DeleteDependency(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid dependency id")
		return
	}

	if err := h.service.DeleteDependency(r.Context(), id); HandleServiceError(w, h.logger, err, "dependency not found") {
		return
	}

	NoContent(w)
}

// ListTaskDependencies возвращает рёбра task в заданном направлении.
// GET /api/v1/tasks/{id}/dependencies?direction=incoming|outgoing|all
func (h *Handler) ListTaskDependencies(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	direction := domain.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = domain.DirectionAll
	}

	if _, err := h.service.GetTask(r.Context(), id); HandleServiceError(w, h.logger, err, "task not found") {
		return
	}

	deps, err := h.service.TaskDependencies(r.Context(), id, direction)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	List(w, deps, len(deps))
}

// CheckCycle выполняет preview-проверку: замкнуло бы ребро from → to цикл.
// GET /api/v1/dependencies/check?from=...&to=...
func (h *Handler) CheckCycle(w http.ResponseWriter, r *http.Request) {
	from, err := uuid.Parse(r.URL.Query().Get("from"))
	if err != nil {
		BadRequest(w, "invalid from task id")
		return
	}
	to, err := uuid.Parse(r.URL.Query().Get("to"))
	if err != nil {
		BadRequest(w, "invalid to task id")
		return
	}

	wouldCycle, err := h.service.WouldCreateCycle(r.Context(), from, to)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	Success(w, CycleCheckResponse{WouldCreateCycle: wouldCycle})
}
