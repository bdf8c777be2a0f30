package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prodplex.app/relay/internal/classifier"
)

func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message into a workflow",
		Long:  `Route a chat message to a workflow category, agent roster and backend input data. Nothing is sent to the backend.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := classifier.Classify(strings.Join(args, " "))

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), analysis)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workflow:   %s\n", analysis.WorkflowType)
			fmt.Fprintf(out, "Confidence: %.2f\n", analysis.Confidence)
			fmt.Fprintf(out, "Reasoning:  %s\n", analysis.Reasoning)
			fmt.Fprintf(out, "Agents:     %s\n", strings.Join(analysis.AgentNames(), ", "))
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the full analysis as JSON")
	return cmd
}
