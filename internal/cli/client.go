package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api, CLI не импортирует internal/api) ---

// ProjectResponse — project из API.
type ProjectResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// FeatureResponse — feature из API.
type FeatureResponse struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// TaskResponse — task из API.
type TaskResponse struct {
	ID        string   `json:"id"`
	FeatureID string   `json:"feature_id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Summary   string   `json:"summary,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// DependencyResponse — ребро зависимости из API.
type DependencyResponse struct {
	ID         string `json:"id"`
	FromTaskID string `json:"from_task_id"`
	ToTaskID   string `json:"to_task_id"`
	Type       string `json:"type"`
	CreatedAt  string `json:"created_at"`
}

// TransitionResultResponse — результат валидации/применения перехода.
type TransitionResultResponse struct {
	Outcome     string   `json:"outcome"`
	Advisory    string   `json:"advisory,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// NextStatusResponse — вычисленный следующий статус.
type NextStatusResponse struct {
	Flow      string   `json:"flow"`
	Target    string   `json:"target,omitempty"`
	Found     bool     `json:"found"`
	Automatic bool     `json:"automatic,omitempty"`
	Requires  []string `json:"requires,omitempty"`
}

// ReachableResponse — достижимые статусы.
type ReachableResponse struct {
	Current   string   `json:"current"`
	Reachable []string `json:"reachable"`
}

// AllowedStatusesResponse — допустимые статус-литералы типа.
type AllowedStatusesResponse struct {
	ContainerType string   `json:"container_type"`
	Statuses      []string `json:"statuses"`
}

// CycleCheckResponse — результат preview-проверки цикла.
type CycleCheckResponse struct {
	WouldCreateCycle bool `json:"would_create_cycle"`
}

// CascadeEventResponse — каскадная рекомендация из API.
type CascadeEventResponse struct {
	Event           string `json:"event"`
	TargetType      string `json:"target_type"`
	TargetID        string `json:"target_id"`
	TargetName      string `json:"target_name"`
	CurrentStatus   string `json:"current_status"`
	SuggestedStatus string `json:"suggested_status"`
	Flow            string `json:"flow"`
	Automatic       bool   `json:"automatic"`
	Reason          string `json:"reason"`
}

// --- Request types ---

// CreateContainerRequest — создание project/feature.
type CreateContainerRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// CreateTaskRequest — создание task.
type CreateTaskRequest struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateTaskRequest — обновление task.
type UpdateTaskRequest struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// CreateDependencyRequest — создание ребра зависимости.
type CreateDependencyRequest struct {
	FromTaskID string `json:"from_task_id"`
	ToTaskID   string `json:"to_task_id"`
	Type       string `json:"type"`
}

// TransitionRequest — переход или валидация статуса.
type TransitionRequest struct {
	Status string `json:"status"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code        string   `json:"code"`
		Message     string   `json:"message"`
		Retryable   bool     `json:"retryable,omitempty"`
		Suggestions []string `json:"suggestions,omitempty"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Tracker API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Projects ---

// ListProjects возвращает projects.
func (c *Client) ListProjects(limit int) ([]ProjectResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var projects []ProjectResponse
	err := c.list("/api/v1/projects", params, &projects)
	return projects, err
}

// CreateProject создаёт project.
func (c *Client) CreateProject(name string, tags []string) (*ProjectResponse, error) {
	var project ProjectResponse
	err := c.post("/api/v1/projects", CreateContainerRequest{Name: name, Tags: tags}, &project)
	return &project, err
}

// GetProject возвращает project по ID.
func (c *Client) GetProject(id string) (*ProjectResponse, error) {
	var project ProjectResponse
	err := c.get("/api/v1/projects/"+id, &project)
	return &project, err
}

// ListFeatures возвращает features project.
func (c *Client) ListFeatures(projectID string) ([]FeatureResponse, error) {
	var features []FeatureResponse
	err := c.list("/api/v1/projects/"+projectID+"/features", nil, &features)
	return features, err
}

// CreateFeature создаёт feature внутри project.
func (c *Client) CreateFeature(projectID, name string, tags []string) (*FeatureResponse, error) {
	var feature FeatureResponse
	err := c.post("/api/v1/projects/"+projectID+"/features", CreateContainerRequest{Name: name, Tags: tags}, &feature)
	return &feature, err
}

// GetFeature возвращает feature по ID.
func (c *Client) GetFeature(id string) (*FeatureResponse, error) {
	var feature FeatureResponse
	err := c.get("/api/v1/features/"+id, &feature)
	return &feature, err
}

// --- Tasks ---

// ListTasks возвращает tasks feature.
func (c *Client) ListTasks(featureID string) ([]TaskResponse, error) {
	var tasks []TaskResponse
	err := c.list("/api/v1/features/"+featureID+"/tasks", nil, &tasks)
	return tasks, err
}

// CreateTask создаёт task внутри feature.
func (c *Client) CreateTask(featureID string, req CreateTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post("/api/v1/features/"+featureID+"/tasks", req, &task)
	return &task, err
}

// GetTask возвращает task по ID.
func (c *Client) GetTask(id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.get("/api/v1/tasks/"+id, &task)
	return &task, err
}

// UpdateTask обновляет task.
func (c *Client) UpdateTask(id string, req UpdateTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.put("/api/v1/tasks/"+id, req, &task)
	return &task, err
}

// DeleteTask удаляет task.
func (c *Client) DeleteTask(id string) error {
	return c.delete("/api/v1/tasks/" + id)
}

// --- Dependencies ---

// CreateDependency создаёт ребро зависимости.
func (c *Client) CreateDependency(req CreateDependencyRequest) (*DependencyResponse, error) {
	var dep DependencyResponse
	err := c.post("/api/v1/dependencies", req, &dep)
	return &dep, err
}

// DeleteDependency удаляет ребро по ID.
func (c *Client) DeleteDependency(id string) error {
	return c.delete("/api/v1/dependencies/" + id)
}

// ListDependencies возвращает рёбра task.
func (c *Client) ListDependencies(taskID, direction string) ([]DependencyResponse, error) {
	params := url.Values{}
	if direction != "" {
		params.Set("direction", direction)
	}

	var deps []DependencyResponse
	err := c.list("/api/v1/tasks/"+taskID+"/dependencies", params, &deps)
	return deps, err
}

// CheckCycle проверяет, замкнуло бы ребро from → to цикл.
func (c *Client) CheckCycle(from, to string) (*CycleCheckResponse, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)

	var result CycleCheckResponse
	err := c.get("/api/v1/dependencies/check?"+params.Encode(), &result)
	return &result, err
}

// --- Status ---

// TransitionStatus применяет переход статуса.
func (c *Client) TransitionStatus(containerType, id, status string) (*TransitionResultResponse, error) {
	var result TransitionResultResponse
	err := c.post("/api/v1/containers/"+containerType+"/"+id+"/transition", TransitionRequest{Status: status}, &result)
	return &result, err
}

// ValidateTransition выполняет dry-run валидацию перехода.
func (c *Client) ValidateTransition(containerType, id, status string) (*TransitionResultResponse, error) {
	var result TransitionResultResponse
	err := c.post("/api/v1/containers/"+containerType+"/"+id+"/validate", TransitionRequest{Status: status}, &result)
	return &result, err
}

// NextStatus возвращает следующий статус по событию.
func (c *Client) NextStatus(containerType, id, event string) (*NextStatusResponse, error) {
	path := "/api/v1/containers/" + containerType + "/" + id + "/next"
	if event != "" {
		path += "?event=" + url.QueryEscape(event)
	}

	var next NextStatusResponse
	err := c.get(path, &next)
	return &next, err
}

// ReachableStatuses возвращает достижимые статусы.
func (c *Client) ReachableStatuses(containerType, id string) (*ReachableResponse, error) {
	var reachable ReachableResponse
	err := c.get("/api/v1/containers/"+containerType+"/"+id+"/reachable", &reachable)
	return &reachable, err
}

// AllowedStatuses возвращает допустимые статус-литералы типа.
func (c *Client) AllowedStatuses(containerType string) (*AllowedStatusesResponse, error) {
	var allowed AllowedStatusesResponse
	err := c.get("/api/v1/containers/"+containerType+"/statuses", &allowed)
	return &allowed, err
}

// DetectCascade возвращает каскадные рекомендации.
func (c *Client) DetectCascade(containerType, id string) ([]CascadeEventResponse, error) {
	var events []CascadeEventResponse
	err := c.list("/api/v1/containers/"+containerType+"/"+id+"/cascade", nil, &events)
	return events, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	// Пустой список приходит как data:null.
	if string(lr.Data) == "null" || len(lr.Data) == 0 {
		return nil
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	msg := fmt.Sprintf("%s: %s", er.Error.Code, er.Error.Message)
	if len(er.Error.Suggestions) > 0 {
		msg += fmt.Sprintf(" (reachable: %v)", er.Error.Suggestions)
	}
	if er.Error.Retryable {
		msg += " (retryable)"
	}
	return fmt.Errorf("%s", msg)
}
