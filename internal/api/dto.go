package api

// Container DTOs

// CreateProjectRequest — запрос на создание project.
type CreateProjectRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// CreateFeatureRequest — запрос на создание feature.
type CreateFeatureRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// CreateTaskRequest — запрос на создание task.
type CreateTaskRequest struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateTaskRequest — запрос на обновление task.
type UpdateTaskRequest struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Dependency DTOs

// CreateDependencyRequest — запрос на создание ребра зависимости.
type CreateDependencyRequest struct {
	FromTaskID string `json:"from_task_id"`
	ToTaskID   string `json:"to_task_id"`
	Type       string `json:"type"`
}

// CycleCheckResponse — результат preview-проверки цикла.
type CycleCheckResponse struct {
	WouldCreateCycle bool `json:"would_create_cycle"`
}

// Status DTOs

// TransitionRequest — запрос на переход или валидацию статуса.
type TransitionRequest struct {
	Status string `json:"status"`
}

// NextStatusResponse — ответ с вычисленным следующим статусом.
type NextStatusResponse struct {
	Flow      string   `json:"flow"`
	Target    string   `json:"target,omitempty"`
	Found     bool     `json:"found"`
	Automatic bool     `json:"automatic,omitempty"`
	Requires  []string `json:"requires,omitempty"`
}

// ReachableResponse — ответ с достижимыми статусами.
type ReachableResponse struct {
	Current   string   `json:"current"`
	Reachable []string `json:"reachable"`
}

// AllowedStatusesResponse — ответ с допустимыми статус-литералами типа.
type AllowedStatusesResponse struct {
	ContainerType string   `json:"container_type"`
	Statuses      []string `json:"statuses"`
}
