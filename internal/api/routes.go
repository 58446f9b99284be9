package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Projects
	mux.Handle("GET /api/v1/projects", chain(http.HandlerFunc(h.ListProjects)))
	mux.Handle("POST /api/v1/projects", chain(http.HandlerFunc(h.CreateProject)))
	mux.Handle("GET /api/v1/projects/{id}", chain(http.HandlerFunc(h.GetProject)))
	mux.Handle("GET /api/v1/projects/{id}/features", chain(http.HandlerFunc(h.ListProjectFeatures)))
	mux.Handle("POST /api/v1/projects/{id}/features", chain(http.HandlerFunc(h.CreateFeature)))

	// Features
	mux.Handle("GET /api/v1/features/{id}", chain(http.HandlerFunc(h.GetFeature)))
	mux.Handle("GET /api/v1/features/{id}/tasks", chain(http.HandlerFunc(h.ListFeatureTasks)))
	mux.Handle("POST /api/v1/features/{id}/tasks", chain(http.HandlerFunc(h.CreateTask)))

	// Tasks
	mux.Handle("GET /api/v1/tasks/{id}", chain(http.HandlerFunc(h.GetTask)))
	mux.Handle("PUT /api/v1/tasks/{id}", chain(http.HandlerFunc(h.UpdateTask)))
	mux.Handle("DELETE /api/v1/tasks/{id}", chain(http.HandlerFunc(h.DeleteTask)))
	mux.Handle("GET /api/v1/tasks/{id}/dependencies", chain(http.HandlerFunc(h.ListTaskDependencies)))

	// Dependencies
	mux.Handle("POST /api/v1/dependencies", chain(http.HandlerFunc(h.CreateDependency)))
	mux.Handle("GET /api/v1/dependencies/check", chain(http.HandlerFunc(h.CheckCycle)))
	mux.Handle("GET /api/v1/dependencies/{id}", chain(http.HandlerFunc(h.GetDependency)))
	mux.Handle("DELETE /api/v1/dependencies/{id}", chain(http.HandlerFunc(h.DeleteDependency)))

	// Status transitions
	mux.Handle("POST /api/v1/containers/{type}/{id}/transition", chain(http.HandlerFunc(h.TransitionStatus)))
	mux.Handle("POST /api/v1/containers/{type}/{id}/validate", chain(http.HandlerFunc(h.ValidateTransition)))
	mux.Handle("GET /api/v1/containers/{type}/{id}/next", chain(http.HandlerFunc(h.NextStatus)))
	mux.Handle("GET /api/v1/containers/{type}/{id}/reachable", chain(http.HandlerFunc(h.ReachableStatuses)))
	mux.Handle("GET /api/v1/containers/{type}/statuses", chain(http.HandlerFunc(h.AllowedStatuses)))

	// Cascade
	mux.Handle("GET /api/v1/containers/{type}/{id}/cascade", chain(http.HandlerFunc(h.DetectCascade)))
}
