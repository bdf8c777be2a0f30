package classifier

import "strings"

// Analysis is the routing decision for one chat message.
type Analysis struct {
	WorkflowType Category       `json:"workflowType"`
	Confidence   float64        `json:"confidence"`
	Reasoning    string         `json:"reasoning"`
	Agents       []Agent        `json:"agents"`
	InputData    map[string]any `json:"inputData"`
}

// AgentNames returns the roster as plain strings.
func (a Analysis) AgentNames() []string {
	names := make([]string, len(a.Agents))
	for i, agent := range a.Agents {
		names[i] = string(agent)
	}
	return names
}

// Input data keys sent to the workflow backend.
const (
	KeyQuery           = "query"
	KeyProduct         = "product"
	KeyFeature         = "feature"
	KeyMarket          = "market"
	KeyTargetAudience  = "target_audience"
	KeySources         = "sources"
	KeyRequirements    = "requirements"
	KeyJurisdiction    = "jurisdiction"
	KeyTaskType        = "task_type"
	KeyTaskDescription = "task_description"
)

type rule struct {
	name       string
	category   Category
	confidence float64
	reasoning  string
	agents     []Agent
	triggers   []string
	match      func(lower string) bool
	input      func(message string) map[string]any
}

// Evaluated top to bottom; the first match wins. full_feature_planning must
// stay ahead of dev_planning since both trigger on "build".
var rules = []rule{
	{
		name:       "launch_strategy",
		category:   CategoryLaunchPlanning,
		confidence: 0.90,
		reasoning:  "Detected product strategy and go-to-market planning task",
		agents:     []Agent{AgentStrategy, AgentResearch, AgentGTM, AgentAutomation},
		triggers: []string{
			"product strategy", "strategic plan", "go-to-market",
			"market strategy", "business strategy", "launch strategy",
		},
		input: func(message string) map[string]any {
			return map[string]any{
				KeyProduct:        ExtractProductName(message),
				KeyTargetAudience: ExtractTargetAudience(message),
				KeyQuery:          message,
			}
		},
	},
	{
		name:       "full_feature",
		category:   CategoryFullFeaturePlanning,
		confidence: 0.95,
		reasoning:  "Detected full feature/product creation task",
		agents: []Agent{
			AgentStrategy, AgentResearch, AgentPrioritization, AgentRisk, AgentRegulation,
			AgentDev, AgentPrototype, AgentGTM, AgentAutomation,
		},
		triggers: []string{
			"create|build|design|plan + feature|product", "new feature",
			"entire thing", "complete + feature|product",
		},
		match: func(lower string) bool {
			subject := containsAny(lower, "feature", "product")
			switch {
			case containsAny(lower, "create", "build", "design", "plan") && subject:
				return true
			case containsAny(lower, "new feature", "entire thing"):
				return true
			case strings.Contains(lower, "complete") && subject:
				return true
			}
			return false
		},
		input: func(message string) map[string]any {
			return map[string]any{
				KeyFeature:        ExtractFeatureName(message),
				KeyMarket:         ExtractMarket(message),
				KeyTargetAudience: ExtractTargetAudience(message),
				KeyQuery:          message,
			}
		},
	},
	{
		name:       "research",
		category:   CategoryResearchAndStrategy,
		confidence: 0.85,
		reasoning:  "Detected research and analysis task",
		agents:     []Agent{AgentStrategy, AgentResearch},
		triggers: []string{
			"research", "analyze", "investigate", "study",
			"competitor", "market research", "user research",
		},
		input: func(message string) map[string]any {
			return map[string]any{
				KeyQuery:   message,
				KeySources: []string{"reddit", "twitter"},
			}
		},
	},
	{
		name:       "dev_planning",
		category:   CategoryDevPlanning,
		confidence: 0.90,
		reasoning:  "Detected development planning task",
		agents:     []Agent{AgentDev, AgentPrototype},
		triggers: []string{
			"develop", "build", "code", "user story", "user stories",
			"sprint", "backlog", "technical", "implementation",
		},
		input: func(message string) map[string]any {
			return map[string]any{
				KeyFeature:      ExtractFeatureName(message),
				KeyRequirements: ExtractRequirements(message),
				KeyQuery:        message,
			}
		},
	},
	{
		name:       "compliance",
		category:   CategoryComplianceCheck,
		confidence: 0.95,
		reasoning:  "Detected compliance and regulatory review task",
		agents:     []Agent{AgentRegulation, AgentRisk},
		triggers: []string{
			"compliance", "regulation", "legal", "audit",
			"gdpr", "soc2", "pci", "regulatory",
		},
		input: func(message string) map[string]any {
			return map[string]any{
				KeyFeature:      ExtractFeatureName(message),
				KeyJurisdiction: ExtractJurisdiction(message),
				KeyQuery:        message,
			}
		},
	},
	{
		name:       "prioritization",
		category:   CategoryAdaptive,
		confidence: 0.80,
		reasoning:  "Detected prioritization task",
		agents:     []Agent{AgentPrioritization, AgentStrategy, AgentResearch},
		triggers: []string{
			"prioritize", "priority", "roadmap", "which feature",
			"what should", "should we build",
		},
		input: func(message string) map[string]any {
			return map[string]any{
				KeyQuery:    message,
				KeyTaskType: "prioritization",
			}
		},
	},
}

var fallback = rule{
	name:       "fallback",
	category:   CategoryAdaptive,
	confidence: 0.70,
	reasoning:  "No specific pattern detected, using adaptive workflow",
	input: func(message string) map[string]any {
		return map[string]any{
			KeyQuery:           message,
			KeyTaskDescription: message,
		}
	},
}

func (r rule) matches(lower string) bool {
	if r.match != nil {
		return r.match(lower)
	}
	return containsAny(lower, r.triggers...)
}

func (r rule) analyze(message string) Analysis {
	agents := make([]Agent, len(r.agents))
	copy(agents, r.agents)

	return Analysis{
		WorkflowType: r.category,
		Confidence:   r.confidence,
		Reasoning:    r.reasoning,
		Agents:       agents,
		InputData:    r.input(message),
	}
}

// Classify maps a free-text chat message to a workflow invocation. It never
// fails: messages that match no rule resolve to the adaptive workflow with an
// empty roster, leaving agent selection to the backend.
func Classify(message string) Analysis {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if r.matches(lower) {
			return r.analyze(message)
		}
	}
	return fallback.analyze(message)
}

// RuleInfo describes one entry of the ordered rule table.
type RuleInfo struct {
	Priority   int      `json:"priority"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Agents     []Agent  `json:"agents"`
	Triggers   []string `json:"triggers"`
}

// Rules lists the rule table in evaluation order, fallback last with
// priority 0.
func Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(rules)+1)
	for i, r := range rules {
		infos = append(infos, r.info(i+1))
	}
	return append(infos, fallback.info(0))
}

func (r rule) info(priority int) RuleInfo {
	agents := make([]Agent, len(r.agents))
	copy(agents, r.agents)
	triggers := make([]string, len(r.triggers))
	copy(triggers, r.triggers)

	return RuleInfo{
		Priority:   priority,
		Name:       r.name,
		Category:   r.category,
		Confidence: r.confidence,
		Reasoning:  r.reasoning,
		Agents:     agents,
		Triggers:   triggers,
	}
}
