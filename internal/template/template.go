package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gosimple/slug"
)

var (
	ErrTemplateExists  = errors.New("template already exists")
	ErrInvalidTemplate = errors.New("invalid template")
	ErrNotFound        = errors.New("template not found")
)

type Kind string

const (
	KindPrebuilt Kind = "prebuilt"
	KindCustom   Kind = "custom"
)

// Template is a named agent roster with optional per-agent settings.
type Template struct {
	Name         string                    `json:"name"`
	DisplayName  string                    `json:"display_name"`
	Description  string                    `json:"description"`
	Agents       []string                  `json:"agents"`
	AgentConfigs map[string]map[string]any `json:"agent_configs,omitempty"`
	UsageCount   int                       `json:"usage_count"`
	Type         Kind                      `json:"type"`
}

const (
	NewFeatureLaunch    = "new_feature_launch"
	CompetitiveResponse = "competitive_response"
	ComplianceAudit     = "compliance_audit"
	SprintPlanning      = "sprint_planning"
	MarketResearch      = "market_research"
	Adaptive            = "adaptive"
)

func prebuilt() []*Template {
	return []*Template{
		{
			Name:        NewFeatureLaunch,
			DisplayName: "New Feature Launch",
			Description: "Complete feature planning from ideation to launch",
			Agents:      []string{"strategy", "research", "risk", "dev", "prioritization", "prototype", "gtm", "automation", "regulation"},
			AgentConfigs: map[string]map[string]any{
				"strategy":       {"task_type": "idea_generation"},
				"research":       {"task_type": "user_research"},
				"dev":            {"task_type": "user_stories"},
				"prioritization": {"method": "multi_factor"},
			},
		},
		{
			Name:        CompetitiveResponse,
			DisplayName: "Competitive Response",
			Description: "Rapid response to competitor move",
			Agents:      []string{"research", "strategy", "dev", "prioritization"},
			AgentConfigs: map[string]map[string]any{
				"research": {"task_type": "competitive_analysis"},
				"strategy": {"task_type": "competitive_analysis"},
			},
		},
		{
			Name:        ComplianceAudit,
			DisplayName: "Compliance Audit",
			Description: "Compliance check and fixes",
			Agents:      []string{"regulation", "risk", "dev"},
			AgentConfigs: map[string]map[string]any{
				"regulation": {"task_type": "compliance_check"},
			},
		},
		{
			Name:        SprintPlanning,
			DisplayName: "Sprint Planning",
			Description: "Plan sprint with prioritization",
			Agents:      []string{"dev", "prioritization", "automation"},
			AgentConfigs: map[string]map[string]any{
				"dev":            {"task_type": "sprint_planning"},
				"prioritization": {"method": "value_effort"},
			},
		},
		{
			Name:        MarketResearch,
			DisplayName: "Market Research",
			Description: "Deep market and user research",
			Agents:      []string{"research", "strategy", "risk"},
			AgentConfigs: map[string]map[string]any{
				"research": {"task_type": "user_research"},
				"strategy": {"task_type": "market_sizing"},
			},
		},
		{
			Name:        Adaptive,
			DisplayName: "Adaptive Workflow",
			Description: "AI-powered adaptive workflow that selects agents dynamically",
			// "adaptive" is a marker; the backend picks the roster.
			Agents: []string{"adaptive"},
		},
	}
}

type recommendation struct {
	keywords []string
	template string
}

var recommendations = []recommendation{
	{keywords: []string{"compliance", "regulation"}, template: ComplianceAudit},
	{keywords: []string{"competitor", "competitive"}, template: CompetitiveResponse},
	{keywords: []string{"sprint", "planning"}, template: SprintPlanning},
	{keywords: []string{"market", "research"}, template: MarketResearch},
	{keywords: []string{"feature", "launch"}, template: NewFeatureLaunch},
}

// Engine holds the prebuilt and custom templates. It is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	order    []string
	prebuilt map[string]*Template
	custom   map[string]*Template
}

func NewEngine() *Engine {
	e := &Engine{
		prebuilt: make(map[string]*Template),
		custom:   make(map[string]*Template),
	}
	for _, t := range prebuilt() {
		t.Type = KindPrebuilt
		e.order = append(e.order, t.Name)
		e.prebuilt[t.Name] = t
	}
	return e
}

func (e *Engine) Get(name string) (Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.lookup(name)
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t.clone(), nil
}

// List returns prebuilt templates in catalog order followed by custom
// templates sorted by name.
func (e *Engine) List() []Template {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Template, 0, len(e.prebuilt)+len(e.custom))
	for _, name := range e.order {
		out = append(out, e.prebuilt[name].clone())
	}

	names := make([]string, 0, len(e.custom))
	for name := range e.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, e.custom[name].clone())
	}
	return out
}

// Recommend picks a template from keywords in a project description. It always
// returns a template; descriptions with no known keyword get the adaptive one.
func (e *Engine) Recommend(description string) Template {
	lower := strings.ToLower(description)

	name := Adaptive
	for _, r := range recommendations {
		if containsAny(lower, r.keywords) {
			name = r.template
			break
		}
	}

	t, _ := e.Get(name)
	return t
}

type CreateParams struct {
	DisplayName  string
	Description  string
	Agents       []string
	AgentConfigs map[string]map[string]any
}

func (e *Engine) Create(p CreateParams) (Template, error) {
	name := Key(p.DisplayName)
	if name == "" {
		return Template{}, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(p.Agents) == 0 {
		return Template{}, fmt.Errorf("%w: at least one agent is required", ErrInvalidTemplate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.lookup(name); exists {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateExists, name)
	}

	t := &Template{
		Name:         name,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		Agents:       append([]string(nil), p.Agents...),
		AgentConfigs: p.AgentConfigs,
		Type:         KindCustom,
	}
	e.custom[name] = t
	return t.clone(), nil
}

// Key derives a template name from a display name, matching the snake_case
// form of the prebuilt names.
func Key(displayName string) string {
	return strings.ReplaceAll(slug.Make(displayName), "-", "_")
}

func (e *Engine) IncrementUsage(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	t.UsageCount++
	return nil
}

// lookup expects e.mu to be held.
func (e *Engine) lookup(name string) (*Template, bool) {
	if t, ok := e.prebuilt[name]; ok {
		return t, true
	}
	t, ok := e.custom[name]
	return t, ok
}

func (t *Template) clone() Template {
	c := *t
	c.Agents = append([]string(nil), t.Agents...)
	if t.AgentConfigs != nil {
		c.AgentConfigs = make(map[string]map[string]any, len(t.AgentConfigs))
		for agent, cfg := range t.AgentConfigs {
			inner := make(map[string]any, len(cfg))
			for k, v := range cfg {
				inner[k] = v
			}
			c.AgentConfigs[agent] = inner
		}
	}
	return c
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
