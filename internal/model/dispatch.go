package model

import (
	"encoding/json"
	"time"
)

type DispatchStatus string

const (
	DispatchStatusQueued    DispatchStatus = "queued"
	DispatchStatusRunning   DispatchStatus = "running"
	DispatchStatusCompleted DispatchStatus = "completed"
	DispatchStatusFailed    DispatchStatus = "failed"
)

func (s DispatchStatus) Terminal() bool {
	return s == DispatchStatusCompleted || s == DispatchStatusFailed
}

// Dispatch records one chat message forwarded to the workflow backend.
type Dispatch struct {
	ID           int64           `json:"id,string"`
	Message      string          `json:"message"`
	ProjectID    *string         `json:"project_id,omitempty"`
	WorkflowType string          `json:"workflow_type"`
	Confidence   float64         `json:"confidence"`
	Reasoning    string          `json:"reasoning"`
	Agents       []string        `json:"agents"`
	InputData    json.RawMessage `json:"input_data"`
	UseNemotron  bool            `json:"use_nemotron"`
	Status       DispatchStatus  `json:"status"`
	WorkflowID   *string         `json:"workflow_id,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        *string         `json:"error,omitempty"`
	Attempts     int32           `json:"attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
