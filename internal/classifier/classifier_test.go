package classifier_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"prodplex.app/relay/internal/classifier"
)

var _ = Describe("Classify", func() {
	Context("launch planning", func() {
		DescribeTable("routes strategy phrases to launch_planning",
			func(message string) {
				a := classifier.Classify(message)
				Expect(a.WorkflowType).To(Equal(classifier.CategoryLaunchPlanning))
				Expect(a.Confidence).To(Equal(0.90))
				Expect(a.Agents).To(Equal([]classifier.Agent{"strategy", "research", "gtm", "automation"}))
			},
			Entry("product strategy", "What is our product strategy?"),
			Entry("strategic plan", "draft a strategic plan"),
			Entry("go-to-market", "Go-To-Market for the new build"),
			Entry("market strategy", "market strategy for Q3"),
			Entry("business strategy", "business strategy review"),
			Entry("launch strategy", "launch strategy to create a product buzz"),
		)

		It("fills product, audience and query", func() {
			msg := "Go-to-market plan for a platform called Acme Cloud aimed at developers"
			a := classifier.Classify(msg)
			Expect(a.InputData).To(Equal(map[string]any{
				"product":         "Acme Cloud",
				"target_audience": "Developers",
				"query":           msg,
			}))
		})
	})

	Context("full feature planning", func() {
		It("wins over dev_planning when both trigger", func() {
			a := classifier.Classify("build the feature backlog for the sprint")
			Expect(a.WorkflowType).To(Equal(classifier.CategoryFullFeaturePlanning))
			Expect(a.Confidence).To(Equal(0.95))
		})

		DescribeTable("matches every trigger form",
			func(message string) {
				Expect(classifier.Classify(message).WorkflowType).To(Equal(classifier.CategoryFullFeaturePlanning))
			},
			Entry("verb and subject", "plan a product"),
			Entry("new feature", "a new feature please"),
			Entry("entire thing", "just do the entire thing"),
			Entry("complete and subject", "complete feature workup"),
		)

		It("handles the dashboard scenario", func() {
			msg := "Create a new AI-powered dashboard feature for enterprise customers"
			a := classifier.Classify(msg)
			Expect(a.WorkflowType).To(Equal(classifier.CategoryFullFeaturePlanning))
			Expect(a.Agents).To(Equal([]classifier.Agent{
				"strategy", "research", "prioritization", "risk", "regulation",
				"dev", "prototype", "gtm", "automation",
			}))
			Expect(a.InputData).To(HaveKeyWithValue("market", "B2B Enterprise"))
			Expect(a.InputData).To(HaveKeyWithValue("target_audience", "Product Managers"))
			Expect(a.InputData).To(HaveKey("feature"))
			Expect(a.InputData).To(HaveKeyWithValue("query", msg))
		})
	})

	Context("research and strategy", func() {
		It("handles the competitor scenario", func() {
			msg := "I want to research competitors in the AI PM space"
			a := classifier.Classify(msg)
			Expect(a.WorkflowType).To(Equal(classifier.CategoryResearchAndStrategy))
			Expect(a.Confidence).To(Equal(0.85))
			Expect(a.Agents).To(Equal([]classifier.Agent{"strategy", "research"}))
			Expect(a.InputData).To(Equal(map[string]any{
				"query":   msg,
				"sources": []string{"reddit", "twitter"},
			}))
		})
	})

	Context("dev planning", func() {
		It("extracts requirements from the message", func() {
			msg := "write user stories\n- login\n- logout"
			a := classifier.Classify(msg)
			Expect(a.WorkflowType).To(Equal(classifier.CategoryDevPlanning))
			Expect(a.Confidence).To(Equal(0.90))
			Expect(a.Agents).To(Equal([]classifier.Agent{"dev", "prototype"}))
			Expect(a.InputData).To(HaveKeyWithValue("requirements", []string{"login", "logout"}))
			Expect(a.InputData).To(HaveKeyWithValue("feature", "New Feature"))
		})

		It("routes a bare build request without a subject", func() {
			Expect(classifier.Classify("build it in the next sprint").WorkflowType).To(Equal(classifier.CategoryDevPlanning))
		})
	})

	Context("compliance check", func() {
		It("attaches jurisdiction", func() {
			a := classifier.Classify("Is our checkout GDPR ready for Europe?")
			Expect(a.WorkflowType).To(Equal(classifier.CategoryComplianceCheck))
			Expect(a.Confidence).To(Equal(0.95))
			Expect(a.Agents).To(Equal([]classifier.Agent{"regulation", "risk"}))
			Expect(a.InputData).To(HaveKeyWithValue("jurisdiction", "EU"))
		})
	})

	Context("prioritization", func() {
		It("routes to adaptive with a prioritization roster", func() {
			a := classifier.Classify("What should go on the roadmap next?")
			Expect(a.WorkflowType).To(Equal(classifier.CategoryAdaptive))
			Expect(a.Confidence).To(Equal(0.80))
			Expect(a.Agents).To(Equal([]classifier.Agent{"prioritization", "strategy", "research"}))
			Expect(a.InputData).To(HaveKeyWithValue("task_type", "prioritization"))
		})
	})

	Context("fallback", func() {
		It("classifies the empty string", func() {
			a := classifier.Classify("")
			Expect(a.WorkflowType).To(Equal(classifier.CategoryAdaptive))
			Expect(a.Confidence).To(Equal(0.70))
			Expect(a.Agents).NotTo(BeNil())
			Expect(a.Agents).To(BeEmpty())
			Expect(a.InputData).To(Equal(map[string]any{"query": "", "task_description": ""}))
		})

		It("serializes an empty roster as an array", func() {
			data, err := json.Marshal(classifier.Classify("hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"agents":[]`))
		})
	})

	It("is idempotent", func() {
		for _, msg := range []string{"", "research", "Create a product\n- a\n- b", "gdpr audit in the uk"} {
			first, err := json.Marshal(classifier.Classify(msg))
			Expect(err).NotTo(HaveOccurred())
			second, err := json.Marshal(classifier.Classify(msg))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		}
	})

	It("does not leak the rule table through returned rosters", func() {
		a := classifier.Classify("research")
		a.Agents[0] = "tampered"
		Expect(classifier.Classify("research").Agents[0]).To(Equal(classifier.AgentStrategy))
	})

	It("always returns a valid category", func() {
		for _, msg := range []string{"", " ", "\n\n", "🚀", "compliance", "prioritize"} {
			Expect(classifier.Classify(msg).WorkflowType.Valid()).To(BeTrue())
		}
	})
})

var _ = Describe("Rules", func() {
	It("lists rules in priority order with the fallback last", func() {
		infos := classifier.Rules()
		Expect(infos).To(HaveLen(7))
		Expect(infos[0].Category).To(Equal(classifier.CategoryLaunchPlanning))
		Expect(infos[1].Category).To(Equal(classifier.CategoryFullFeaturePlanning))
		Expect(infos[3].Category).To(Equal(classifier.CategoryDevPlanning))
		Expect(infos[6].Priority).To(Equal(0))
		Expect(infos[6].Agents).To(BeEmpty())
	})
})

var _ = Describe("Category", func() {
	It("validates membership", func() {
		Expect(classifier.Category("dev_planning").Valid()).To(BeTrue())
		Expect(classifier.Category("custom").Valid()).To(BeFalse())
		Expect(classifier.Categories()).To(HaveLen(6))
	})

	It("lists the full agent roster", func() {
		agents := classifier.Agents()
		Expect(agents).To(HaveLen(9))
		Expect(agents[0]).To(Equal(classifier.AgentStrategy))
		Expect(agents[8]).To(Equal(classifier.AgentAutomation))
	})
})
