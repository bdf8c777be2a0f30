package dto

import (
	"encoding/json"
	"time"

	"prodplex.app/relay/internal/model"
)

// DispatchView is the API shape of a dispatch. IDs are strings so
// JavaScript clients keep full snowflake precision.
type DispatchView struct {
	ID           int64                `json:"id,string"`
	Message      string               `json:"message"`
	ProjectID    *string              `json:"project_id,omitempty"`
	WorkflowType string               `json:"workflow_type"`
	Confidence   float64              `json:"confidence"`
	Reasoning    string               `json:"reasoning"`
	Agents       []string             `json:"agents"`
	InputData    json.RawMessage      `json:"input_data"`
	UseNemotron  bool                 `json:"use_nemotron"`
	Status       model.DispatchStatus `json:"status"`
	WorkflowID   *string              `json:"workflow_id,omitempty"`
	Result       json.RawMessage      `json:"result,omitempty"`
	Error        *string              `json:"error,omitempty"`
	Attempts     int32                `json:"attempts"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
}

func ToDispatchView(d *model.Dispatch) *DispatchView {
	agents := d.Agents
	if agents == nil {
		agents = []string{}
	}
	input := d.InputData
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	return &DispatchView{
		ID:           d.ID,
		Message:      d.Message,
		ProjectID:    d.ProjectID,
		WorkflowType: d.WorkflowType,
		Confidence:   d.Confidence,
		Reasoning:    d.Reasoning,
		Agents:       agents,
		InputData:    input,
		UseNemotron:  d.UseNemotron,
		Status:       d.Status,
		WorkflowID:   d.WorkflowID,
		Result:       d.Result,
		Error:        d.Error,
		Attempts:     d.Attempts,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		CompletedAt:  d.CompletedAt,
	}
}

type ListDispatchesResponse struct {
	Dispatches []*DispatchView `json:"dispatches"`
	Count      int             `json:"count"`
}

func ToListDispatchesResponse(list []model.Dispatch) *ListDispatchesResponse {
	views := make([]*DispatchView, len(list))
	for i := range list {
		views[i] = ToDispatchView(&list[i])
	}
	return &ListDispatchesResponse{Dispatches: views, Count: len(views)}
}
