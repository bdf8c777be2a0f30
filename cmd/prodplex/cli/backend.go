package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prodplex.app/relay/internal/backend"
)

func NewBackendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Inspect the workflow backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show backend health and agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := backendConfig(cmd)
			if err != nil {
				return err
			}
			client := backend.NewClient(cfg)
			out := cmd.OutOrStdout()

			health, err := client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "❌ Backend unreachable at %s\n", cfg.BaseURL)
				return err
			}
			fmt.Fprintf(out, "✅ Backend %s at %s\n", health.Status, cfg.BaseURL)

			agents, err := client.AgentStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching agents: %w", err)
			}
			names := make([]string, 0, len(agents))
			for name := range agents {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "AGENT\tSTATUS\tGOAL")
			for _, name := range names {
				a := agents[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, a.Status, a.Goal)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "workflows",
		Short: "List workflows the backend can run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := backendConfig(cmd)
			if err != nil {
				return err
			}
			workflows, err := backend.NewClient(cfg).ListWorkflows(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), workflows)
		},
	})

	return cmd
}
