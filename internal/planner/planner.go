package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"prodplex.app/relay/common/llm"
	"prodplex.app/relay/internal/classifier"
)

// Plan source values.
const (
	SourceLLM   = "llm"
	SourceCache = "cache"
	SourceRules = "rules"
)

const cacheKeyPrefix = 100

// Plan is the agent line-up chosen for a task.
type Plan struct {
	Task         string              `json:"task"`
	WorkflowType classifier.Category `json:"workflow_type"`
	Agents       []string            `json:"agents"`
	Steps        []Step              `json:"steps"`
	Reasoning    string              `json:"reasoning"`
	Confidence   float64             `json:"confidence"`
	Source       string              `json:"source"`
	Model        string              `json:"model,omitempty"`
}

type Step struct {
	Agent   string `json:"agent"`
	Purpose string `json:"purpose"`
}

type Usage struct {
	CallsMade       int `json:"calls_made"`
	CallsRemaining  int `json:"calls_remaining"`
	MaxCalls        int `json:"max_calls"`
	TotalTokens     int `json:"total_tokens"`
	CachedResponses int `json:"cached_responses"`
	Fallbacks       int `json:"fallbacks"`
}

// Planner decides which agents should handle a task.
type Planner interface {
	Plan(ctx context.Context, task string, available []string) Plan
	Usage() Usage
	Reset()
}

type planResponse struct {
	Agents     []string       `json:"agents" jsonschema_description:"Agents to run, in execution order, chosen only from the available list"`
	Steps      []planStepJSON `json:"steps" jsonschema_description:"What each chosen agent contributes"`
	Reasoning  string         `json:"reasoning" jsonschema_description:"One or two sentences explaining the line-up"`
	Confidence float64        `json:"confidence" jsonschema_description:"Confidence in the plan, 0.0-1.0"`
}

type planStepJSON struct {
	Agent   string `json:"agent"`
	Purpose string `json:"purpose"`
}

var planSchema = llm.GenerateSchema[planResponse]()

type planner struct {
	llm      llm.Client
	maxCalls int

	mu        sync.Mutex
	calls     int
	tokens    int
	fallbacks int
	cache     map[string]Plan
}

// New returns a planner. client may be nil, in which case every plan comes
// from the classifier rules.
func New(client llm.Client, maxCalls int) Planner {
	return &planner{
		llm:      client,
		maxCalls: maxCalls,
		cache:    make(map[string]Plan),
	}
}

func (p *planner) Plan(ctx context.Context, task string, available []string) Plan {
	if len(available) == 0 {
		available = agentNames(classifier.Agents())
	}
	analysis := classifier.Classify(task)
	key := cacheKey(task, available)

	p.mu.Lock()
	if cached, ok := p.cache[key]; ok {
		p.mu.Unlock()
		slog.DebugContext(ctx, "planner cache hit")
		// Keys share a task prefix, so the hit may belong to another message.
		cached.Task = task
		cached.WorkflowType = analysis.WorkflowType
		cached.Source = SourceCache
		return clonePlan(cached)
	}
	if !p.reserveCall() {
		p.fallbacks++
		p.mu.Unlock()
		return rulePlan(task, analysis, available)
	}
	p.mu.Unlock()

	plan, tokens, err := p.ask(ctx, task, analysis, available)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens += tokens
	if err != nil {
		p.fallbacks++
		slog.WarnContext(ctx, "planner llm call failed, using rules", "error", err)
		return rulePlan(task, analysis, available)
	}
	p.cache[key] = clonePlan(plan)
	return plan
}

// reserveCall must hold mu.
func (p *planner) reserveCall() bool {
	if p.llm == nil || p.calls >= p.maxCalls {
		return false
	}
	p.calls++
	return true
}

func (p *planner) ask(ctx context.Context, task string, analysis classifier.Analysis, available []string) (Plan, int, error) {
	var resp planResponse
	start := time.Now()

	llmResp, err := p.llm.Chat(ctx, llm.Request{
		SystemPrompt: plannerSystemPrompt,
		UserPrompt:   buildPrompt(task, analysis, available),
		SchemaName:   "orchestration_plan",
		Schema:       planSchema,
		MaxTokens:    1500,
		Temperature:  llm.Temp(0.2),
	}, &resp)
	if err != nil {
		return Plan{}, 0, fmt.Errorf("planner chat: %w", err)
	}
	tokens := llmResp.TotalTokens()

	agents := filterAgents(resp.Agents, available)
	if len(agents) == 0 {
		return Plan{}, tokens, fmt.Errorf("planner chose no available agents (got %v)", resp.Agents)
	}

	steps := make([]Step, 0, len(resp.Steps))
	for _, s := range resp.Steps {
		if contains(agents, s.Agent) {
			steps = append(steps, Step{Agent: s.Agent, Purpose: s.Purpose})
		}
	}

	slog.InfoContext(ctx, "planner llm plan ready",
		"agent_count", len(agents),
		"latency_ms", time.Since(start).Milliseconds(),
		"tokens", tokens)

	return Plan{
		Task:         task,
		WorkflowType: analysis.WorkflowType,
		Agents:       agents,
		Steps:        steps,
		Reasoning:    resp.Reasoning,
		Confidence:   clamp(resp.Confidence),
		Source:       SourceLLM,
		Model:        p.llm.Model(),
	}, tokens, nil
}

func (p *planner) Usage() Usage {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.maxCalls - p.calls
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		CallsMade:       p.calls,
		CallsRemaining:  remaining,
		MaxCalls:        p.maxCalls,
		TotalTokens:     p.tokens,
		CachedResponses: len(p.cache),
		Fallbacks:       p.fallbacks,
	}
}

// Reset clears the call budget. Cached plans are kept.
func (p *planner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = 0
	p.tokens = 0
	p.fallbacks = 0
}

// rulePlan uses the classifier roster restricted to the available agents, or
// every available agent when that leaves nothing.
func rulePlan(task string, analysis classifier.Analysis, available []string) Plan {
	agents := filterAgents(analysis.AgentNames(), available)
	if len(agents) == 0 {
		agents = append([]string(nil), available...)
	}

	return Plan{
		Task:         task,
		WorkflowType: analysis.WorkflowType,
		Agents:       agents,
		Steps:        []Step{},
		Reasoning:    analysis.Reasoning,
		Confidence:   analysis.Confidence,
		Source:       SourceRules,
	}
}

func filterAgents(agents, available []string) []string {
	out := make([]string, 0, len(agents))
	for _, a := range agents {
		a = strings.ToLower(strings.TrimSpace(a))
		if contains(available, a) && !contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func cacheKey(task string, available []string) string {
	prefix := task
	if len(prefix) > cacheKeyPrefix {
		prefix = prefix[:cacheKeyPrefix]
	}
	return prefix + "|" + strings.Join(available, ",")
}

func clonePlan(p Plan) Plan {
	p.Agents = append([]string(nil), p.Agents...)
	p.Steps = append([]Step(nil), p.Steps...)
	return p
}

func agentNames(agents []classifier.Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = string(a)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
