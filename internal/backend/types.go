package backend

import (
	"encoding/json"
	"fmt"
)

// RunRequest is the body of POST /api/v1/run_task.
type RunRequest struct {
	WorkflowType string         `json:"workflow_type"`
	InputData    map[string]any `json:"input_data"`
	ProjectID    *string        `json:"project_id,omitempty"`
	UseNemotron  bool           `json:"use_nemotron"`
}

type RunResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`

	WorkflowID string `json:"-"`
	Status     string `json:"-"`
}

// WorkflowInfo is one entry of GET /api/v1/workflows.
type WorkflowInfo struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Agents      []string `json:"agents"`
}

type AgentInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Goal   string `json:"goal,omitempty"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Agents    int    `json:"agents"`
}

// APIError is a non-2xx answer from the backend. Detail carries FastAPI's
// {"detail": ...} message when present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Retryable reports whether trying the same request later can succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Event is one push message from the backend websocket.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
