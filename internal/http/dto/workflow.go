package dto

import (
	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/template"
)

type WorkflowCatalogResponse struct {
	Workflows []classifier.RuleInfo `json:"workflows"`
	Count     int                   `json:"count"`
}

type TemplateListResponse struct {
	Templates []template.Template `json:"templates"`
	Count     int                 `json:"count"`
}

type CreateTemplateRequest struct {
	DisplayName  string                    `json:"display_name" binding:"required"`
	Description  string                    `json:"description"`
	Agents       []string                  `json:"agents" binding:"required,min=1"`
	AgentConfigs map[string]map[string]any `json:"agent_configs,omitempty"`
}

func (r CreateTemplateRequest) Params() template.CreateParams {
	return template.CreateParams{
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		Agents:       r.Agents,
		AgentConfigs: r.AgentConfigs,
	}
}

type RecommendResponse struct {
	Template template.Template `json:"template"`
}
