package dto

import (
	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/planner"
	"prodplex.app/relay/internal/service"
)

type AnalyzeRequest struct {
	Message string `json:"message"`
}

type DispatchRequest struct {
	Message     string  `json:"message" binding:"required"`
	ProjectID   *string `json:"project_id,omitempty"`
	UseNemotron *bool   `json:"use_nemotron,omitempty"`
}

type DispatchResponse struct {
	Dispatch *DispatchView       `json:"dispatch"`
	Analysis classifier.Analysis `json:"analysis"`
}

func ToDispatchResponse(res *service.DispatchResult) *DispatchResponse {
	return &DispatchResponse{
		Dispatch: ToDispatchView(res.Dispatch),
		Analysis: res.Analysis,
	}
}

type PlanRequest struct {
	Task   string   `json:"task" binding:"required"`
	Agents []string `json:"agents,omitempty"`
}

type PlanResponse struct {
	Plan  planner.Plan  `json:"plan"`
	Usage planner.Usage `json:"usage"`
}
