package planner_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/common/llm"
	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/planner"
)

type mockLLM struct {
	calls  int
	chatFn func(req llm.Request) (string, error)
}

func (m *mockLLM) Chat(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.calls++
	raw, err := m.chatFn(req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), result); err != nil {
		return nil, err
	}
	return &llm.Response{PromptTokens: 100, CompletionTokens: 20}, nil
}

func (m *mockLLM) Model() string { return "mock-nemotron" }

var _ = Describe("Planner", func() {
	var (
		ctx       context.Context
		available []string
	)

	BeforeEach(func() {
		ctx = context.Background()
		available = []string{"strategy", "research", "gtm", "automation", "dev"}
	})

	Context("without an llm", func() {
		It("uses the classifier roster", func() {
			p := planner.New(nil, 10)
			plan := p.Plan(ctx, "Create a go-to-market plan", available)

			Expect(plan.Source).To(Equal(planner.SourceRules))
			Expect(plan.WorkflowType).To(Equal(classifier.CategoryLaunchPlanning))
			Expect(plan.Agents).To(Equal([]string{"strategy", "research", "gtm", "automation"}))
			Expect(plan.Confidence).To(Equal(0.90))
			Expect(p.Usage().Fallbacks).To(Equal(1))
		})

		It("offers every available agent when the roster is empty", func() {
			plan := planner.New(nil, 10).Plan(ctx, "", []string{"risk", "dev"})
			Expect(plan.WorkflowType).To(Equal(classifier.CategoryAdaptive))
			Expect(plan.Agents).To(Equal([]string{"risk", "dev"}))
		})

		It("drops roster agents that are not available", func() {
			plan := planner.New(nil, 10).Plan(ctx, "Plan the sprint", []string{"dev"})
			Expect(plan.Agents).To(Equal([]string{"dev"}))
		})

		It("defaults to all known agents", func() {
			plan := planner.New(nil, 10).Plan(ctx, "hello", nil)
			Expect(plan.Agents).To(HaveLen(len(classifier.Agents())))
		})
	})

	Context("with an llm", func() {
		var mock *mockLLM

		BeforeEach(func() {
			mock = &mockLLM{chatFn: func(req llm.Request) (string, error) {
				Expect(req.SchemaName).To(Equal("orchestration_plan"))
				Expect(req.UserPrompt).To(ContainSubstring("Available agents: strategy, research, gtm, automation, dev"))
				return `{"agents":["Research","ghost","strategy","research"],
					"steps":[{"agent":"research","purpose":"size the market"},{"agent":"ghost","purpose":"?"}],
					"reasoning":"Research first, then strategy.","confidence":1.4}`, nil
			}}
		})

		It("keeps only available agents in llm order", func() {
			p := planner.New(mock, 5)
			plan := p.Plan(ctx, "Launch strategy for Orbit", available)

			Expect(plan.Source).To(Equal(planner.SourceLLM))
			Expect(plan.Model).To(Equal("mock-nemotron"))
			Expect(plan.Agents).To(Equal([]string{"research", "strategy"}))
			Expect(plan.Steps).To(Equal([]planner.Step{{Agent: "research", Purpose: "size the market"}}))
			Expect(plan.Confidence).To(Equal(1.0))

			usage := p.Usage()
			Expect(usage.CallsMade).To(Equal(1))
			Expect(usage.CallsRemaining).To(Equal(4))
			Expect(usage.TotalTokens).To(Equal(120))
		})

		It("serves repeats from the cache", func() {
			p := planner.New(mock, 5)
			p.Plan(ctx, "Launch strategy for Orbit", available)
			plan := p.Plan(ctx, "Launch strategy for Orbit", available)

			Expect(plan.Source).To(Equal(planner.SourceCache))
			Expect(mock.calls).To(Equal(1))
			Expect(p.Usage().CachedResponses).To(Equal(1))
		})

		It("answers a cache hit with the current task", func() {
			prefix := strings.Repeat("x", 100)
			p := planner.New(mock, 5)
			first := p.Plan(ctx, prefix+" launch strategy", available)
			Expect(first.WorkflowType).To(Equal(classifier.CategoryLaunchPlanning))

			task := prefix + " research competitors"
			plan := p.Plan(ctx, task, available)

			Expect(plan.Source).To(Equal(planner.SourceCache))
			Expect(mock.calls).To(Equal(1))
			Expect(plan.Task).To(Equal(task))
			Expect(plan.WorkflowType).To(Equal(classifier.CategoryResearchAndStrategy))
		})

		It("stops calling once the budget is spent", func() {
			p := planner.New(mock, 1)
			p.Plan(ctx, "first task", available)
			plan := p.Plan(ctx, "second task", available)

			Expect(plan.Source).To(Equal(planner.SourceRules))
			Expect(mock.calls).To(Equal(1))
			Expect(p.Usage().CallsRemaining).To(BeZero())

			p.Reset()
			plan = p.Plan(ctx, "third task", available)
			Expect(plan.Source).To(Equal(planner.SourceLLM))
		})

		It("falls back when the llm fails", func() {
			mock.chatFn = func(llm.Request) (string, error) {
				return "", errors.New("upstream unavailable")
			}
			p := planner.New(mock, 5)
			plan := p.Plan(ctx, "Plan the sprint", available)

			Expect(plan.Source).To(Equal(planner.SourceRules))
			Expect(plan.Agents).To(Equal([]string{"dev"}))
			Expect(p.Usage().Fallbacks).To(Equal(1))
			Expect(p.Usage().CachedResponses).To(BeZero())
		})

		It("falls back when the llm picks nobody usable", func() {
			mock.chatFn = func(llm.Request) (string, error) {
				return `{"agents":["ghost"],"steps":[],"reasoning":"","confidence":0.5}`, nil
			}
			plan := planner.New(mock, 5).Plan(ctx, "Plan the sprint", available)
			Expect(plan.Source).To(Equal(planner.SourceRules))
		})
	})
})
