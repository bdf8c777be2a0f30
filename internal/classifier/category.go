package classifier

// Category is a workflow identifier understood by the workflow backend.
type Category string

const (
	CategoryLaunchPlanning      Category = "launch_planning"
	CategoryFullFeaturePlanning Category = "full_feature_planning"
	CategoryResearchAndStrategy Category = "research_and_strategy"
	CategoryDevPlanning         Category = "dev_planning"
	CategoryComplianceCheck     Category = "compliance_check"
	CategoryAdaptive            Category = "adaptive"
)

var categories = []Category{
	CategoryLaunchPlanning,
	CategoryFullFeaturePlanning,
	CategoryResearchAndStrategy,
	CategoryDevPlanning,
	CategoryComplianceCheck,
	CategoryAdaptive,
}

// Categories returns the closed set of workflow categories.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Agent is a backend worker role. The classifier only references it by name.
type Agent string

const (
	AgentStrategy       Agent = "strategy"
	AgentResearch       Agent = "research"
	AgentPrioritization Agent = "prioritization"
	AgentRisk           Agent = "risk"
	AgentRegulation     Agent = "regulation"
	AgentDev            Agent = "dev"
	AgentPrototype      Agent = "prototype"
	AgentGTM            Agent = "gtm"
	AgentAutomation     Agent = "automation"
)

var allAgents = []Agent{
	AgentStrategy, AgentResearch, AgentPrioritization, AgentRisk, AgentRegulation,
	AgentDev, AgentPrototype, AgentGTM, AgentAutomation,
}

// Agents returns every known agent role.
func Agents() []Agent {
	out := make([]Agent, len(allAgents))
	copy(out, allAgents)
	return out
}
