package planner

import (
	"fmt"
	"strings"

	"prodplex.app/relay/internal/classifier"
)

const plannerSystemPrompt = `You orchestrate a team of product management agents.
Given a task and the agents available, choose which agents should run and in what order.
Only use agent names from the available list. Prefer the smallest team that covers the task.
Describe what each chosen agent contributes in one short sentence.`

func buildPrompt(task string, analysis classifier.Analysis, available []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	fmt.Fprintf(&b, "Available agents: %s\n\n", strings.Join(available, ", "))
	fmt.Fprintf(&b, "Rule-based routing suggests %s (confidence %.2f) with agents: %s\n",
		analysis.WorkflowType, analysis.Confidence, strings.Join(analysis.AgentNames(), ", "))
	return b.String()
}
