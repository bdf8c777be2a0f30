package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/classifier"
)

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <message>",
		Short: "Classify a message and run the workflow synchronously",
		Long: `Classify a message and call the backend's run_task endpoint directly,
bypassing the relay queue. Useful for trying a workflow end to end.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := backendConfig(cmd)
			if err != nil {
				return err
			}

			analysis := classifier.Classify(strings.Join(args, " "))
			req := backend.RunRequest{
				WorkflowType: string(analysis.WorkflowType),
				InputData:    analysis.InputData,
				UseNemotron:  cfg.UseNemotron,
			}
			if project, _ := cmd.Flags().GetString("project"); project != "" {
				req.ProjectID = &project
			}
			if noNemotron, _ := cmd.Flags().GetBool("no-nemotron"); noNemotron {
				req.UseNemotron = false
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Running %s with %s\n",
				analysis.WorkflowType, strings.Join(analysis.AgentNames(), ", "))

			resp, err := backend.NewClient(cfg).RunWorkflow(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("running workflow: %w", err)
			}
			if !resp.Success {
				return fmt.Errorf("backend reported failure")
			}
			return printJSON(cmd.OutOrStdout(), resp.Result)
		},
	}

	cmd.Flags().String("project", "", "Project ID to attach the workflow to")
	cmd.Flags().Bool("no-nemotron", false, "Ask the backend not to use Nemotron")
	return cmd
}
