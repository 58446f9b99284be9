package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const defaultListLimit = 50

// ListProjects возвращает список projects.
// GET /api/v1/projects?limit=...
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	projects, err := h.service.ListProjects(r.Context(), limit)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	List(w, projects, len(projects))
}

// CreateProject создаёт project.
// POST /api/v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	project, err := h.service.CreateProject(r.Context(), req.Name, req.Tags)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	Created(w, project)
}

// GetProject возвращает project по ID.
// GET /api/v1/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	project, err := h.service.GetProject(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "project not found") {
		return
	}

	Success(w, project)
}

// ListProjectFeatures возвращает features project.
// GET /api/v1/projects/{id}/features
func (h *Handler) ListProjectFeatures(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	// Проверяем, что project существует
	if _, err := h.service.GetProject(r.Context(), id); HandleServiceError(w, h.logger, err, "project not found") {
		return
	}

	features, err := h.service.ListFeatures(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	List(w, features, len(features))
}

// CreateFeature создаёт feature внутри project.
// POST /api/v1/projects/{id}/features
func (h *Handler) CreateFeature(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	var req CreateFeatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	feature, err := h.service.CreateFeature(r.Context(), projectID, req.Name, req.Tags)
	if HandleServiceError(w, h.logger, err, "project not found") {
		return
	}

	Created(w, feature)
}

// GetFeature возвращает feature по ID.
// GET /api/v1/features/{id}
func (h *Handler) GetFeature(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid feature id")
		return
	}

	feature, err := h.service.GetFeature(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "feature not found") {
		return
	}

	Success(w, feature)
}

// ListFeatureTasks возвращает tasks feature.
// GET /api/v1/features/{id}/tasks
func (h *Handler) ListFeatureTasks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid feature id")
		return
	}

	if _, err := h.service.GetFeature(r.Context(), id); HandleServiceError(w, h.logger, err, "feature not found") {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	List(w, tasks, len(tasks))
}

// CreateTask создаёт task внутри feature.
// POST /api/v1/features/{id}/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	featureID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid feature id")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	task, err := h.service.CreateTask(r.Context(), featureID, req.Name, req.Summary, req.Tags)
	if HandleServiceError(w, h.logger, err, "feature not found") {
		return
	}

	Created(w, task)
}

// GetTask возвращает task по ID.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	task, err := h.service.GetTask(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "task not found") {
		return
	}

	Success(w, task)
}

// UpdateTask обновляет изменяемые поля task.
// PUT /api/v1/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, req.Name, req.Summary, req.Tags)
	if HandleServiceError(w, h.logger, err, "task not found") {
		return
	}

	Success(w, task)
}

// DeleteTask удаляет task вместе с её рёбрами зависимостей.
// DELETE /api/v1/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); HandleServiceError(w, h.logger, err, "task not found") {
		return
	}

	NoContent(w)
}
