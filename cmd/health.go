package cmd

import (
	"fmt"

	"github.com/longkey1/suvidha/internal/config"
	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the assistant backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		client := newClient(cfg)
		status, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking %s: %w", client.BaseURL(), err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "API: %s\n", maskURL(client.BaseURL()))
		fmt.Fprintf(out, "Status: %s\n", status.Status)
		if status.Timestamp != "" {
			fmt.Fprintf(out, "Timestamp: %s\n", status.Timestamp)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
