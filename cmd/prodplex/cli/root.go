package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/core/config"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prodplex",
		Short: "ProdPlex relay CLI",
		Long: `prodplex classifies product-management requests, recommends workflow
templates and runs workflows against the multi-agent backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(logger.NewTraceHandler(
				slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}),
			)))
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("backend", "", "Override workflow backend URL")

	rootCmd.AddCommand(NewClassifyCommand())
	rootCmd.AddCommand(NewTemplatesCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewBackendCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// backendConfig loads backend settings from the environment and applies
// the --backend override.
func backendConfig(cmd *cobra.Command) (config.BackendConfig, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return config.BackendConfig{}, err
	}
	if override, _ := cmd.Flags().GetString("backend"); override != "" {
		cfg.Backend.BaseURL = override
	}
	return cfg.Backend, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
