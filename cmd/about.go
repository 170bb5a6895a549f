package cmd

import (
	"fmt"

	"github.com/longkey1/suvidha/internal/docs"
	"github.com/spf13/cobra"
)

// aboutCmd represents the about command
var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Describe the assistant and its documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprint(out, markdownRenderer(out)(docs.About))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}
