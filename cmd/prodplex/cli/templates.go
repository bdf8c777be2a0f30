package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prodplex.app/relay/internal/template"
)

func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Browse workflow templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List prebuilt templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tAGENTS\tDESCRIPTION")
			for _, t := range template.NewEngine().List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, strings.Join(t.Agents, ","), t.Description)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "recommend <project description>",
		Short: "Recommend a template for a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := template.NewEngine().Recommend(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", t.DisplayName, t.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Agents: %s\n", strings.Join(t.Agents, " → "))
			return nil
		},
	})

	return cmd
}
