package service

import (
	"context"
	"log/slog"

	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/template"
)

// WorkflowService exposes the routing catalog and the template library.
type WorkflowService interface {
	Catalog() []classifier.RuleInfo
	Templates() []template.Template
	CreateTemplate(ctx context.Context, params template.CreateParams) (template.Template, error)
	Recommend(ctx context.Context, projectDescription string) template.Template
}

type workflowService struct {
	templates *template.Engine
}

func NewWorkflowService(templates *template.Engine) WorkflowService {
	return &workflowService{templates: templates}
}

func (s *workflowService) Catalog() []classifier.RuleInfo {
	return classifier.Rules()
}

func (s *workflowService) Templates() []template.Template {
	return s.templates.List()
}

func (s *workflowService) CreateTemplate(ctx context.Context, params template.CreateParams) (template.Template, error) {
	t, err := s.templates.Create(params)
	if err != nil {
		return template.Template{}, err
	}
	slog.InfoContext(ctx, "custom template created", "template", t.Name, "agent_count", len(t.Agents))
	return t, nil
}

func (s *workflowService) Recommend(ctx context.Context, projectDescription string) template.Template {
	t := s.templates.Recommend(projectDescription)
	if err := s.templates.IncrementUsage(t.Name); err != nil {
		slog.WarnContext(ctx, "failed to count template usage", "template", t.Name, "error", err)
	}
	return t
}
