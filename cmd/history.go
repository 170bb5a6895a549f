package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/longkey1/suvidha/internal/chat"
	"github.com/longkey1/suvidha/internal/config"
	"github.com/longkey1/suvidha/internal/export"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// width of the QUESTION column in 'history list'
const previewWidth = 50

var historyDir string

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect exported chat histories",
	Long: `Inspect chat histories exported from the chat (ctrl+e or /export).

Exports are chat-history-YYYY-MM-DD.json files in export_dir.`,
}

// historyListCmd represents the history list command
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exported chat histories",
	Long:  `List exported chat histories, most recent first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveHistoryDir()
		if err != nil {
			return err
		}

		snapshots, err := export.List(dir)
		if err != nil {
			return fmt.Errorf("listing exports: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(snapshots) == 0 {
			fmt.Fprintf(out, "No exports found in %s.\n", dir)
			fmt.Fprintln(out, "\nExport a conversation with ctrl+e in 'suvidha chat' or /export in 'suvidha chat --plain'.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODIFIED\tMESSAGES\tSIZE\tQUESTION")
		fmt.Fprintln(w, "----\t--------\t--------\t----\t--------")
		for _, snapshot := range snapshots {
			question := strings.Join(strings.Fields(snapshot.FirstQuestion()), " ")
			if question == "" {
				question = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				snapshot.Name,
				humanize.Time(snapshot.ModTime),
				snapshot.MessageCount(),
				humanize.Bytes(uint64(snapshot.Size)),
				runewidth.Truncate(question, previewWidth, "..."),
			)
		}
		w.Flush()

		fmt.Fprintln(out, "\nUse 'suvidha history show <name|date|latest>' to view a conversation.")
		return nil
	},
}

// historyShowCmd represents the history show command
var historyShowCmd = &cobra.Command{
	Use:   "show <name|date|latest>",
	Short: "Show an exported conversation",
	Long: `Show the messages of an exported conversation.

The reference can be a file name, a file path, a date prefix (2025-03-14 or 2025-03),
or "latest" for the most recent export.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveHistoryDir()
		if err != nil {
			return err
		}

		snapshot, err := export.Find(dir, args[0])
		if err != nil {
			return fmt.Errorf("finding export: %w", err)
		}

		printSnapshot(cmd.OutOrStdout(), snapshot)
		return nil
	},
}

// historyDeleteCmd represents the history delete command
var historyDeleteCmd = &cobra.Command{
	Use:   "delete <name|date|latest>",
	Short: "Delete an exported conversation",
	Long: `Delete an exported conversation file.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveHistoryDir()
		if err != nil {
			return err
		}

		snapshot, err := export.Find(dir, args[0])
		if err != nil {
			return fmt.Errorf("finding export: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Are you sure you want to delete %s? [y/N]: ", snapshot.Name)
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)

		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Deletion cancelled.")
			return nil
		}

		if err := os.Remove(snapshot.Path); err != nil {
			return fmt.Errorf("deleting export: %w", err)
		}
		fmt.Fprintf(out, "%s deleted successfully.\n", snapshot.Name)
		return nil
	},
}

func resolveHistoryDir() (string, error) {
	if historyDir != "" {
		dir, err := config.ResolvePath(historyDir)
		if err != nil {
			return "", fmt.Errorf("resolving export directory: %w", err)
		}
		return dir, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	return cfg.ExportDir, nil
}

func printSnapshot(w io.Writer, snapshot *export.Snapshot) {
	fmt.Fprintf(w, "Export: %s\n", snapshot.Path)
	fmt.Fprintf(w, "Modified: %s\n", snapshot.ModTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Messages: %d\n", snapshot.MessageCount())
	fmt.Fprintln(w)

	if snapshot.MessageCount() == 0 {
		fmt.Fprintln(w, "No messages in this export.")
		return
	}

	fmt.Fprintln(w, "Message History:")
	fmt.Fprintln(w, "----------------")
	for i, msg := range snapshot.Messages {
		roleLabel := "You"
		if msg.Role == chat.RoleAssistant {
			roleLabel = "Assistant"
		}
		fmt.Fprintf(w, "\n[%d] %s:\n%s\n", i+1, roleLabel, msg.Content)

		for _, c := range msg.Citations {
			fmt.Fprintf(w, "  - %s - Rule %s (Page %d): %s\n", c.Source, c.RuleNumber, c.Page, c.Text)
		}
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyCmd.PersistentFlags().StringVar(&historyDir, "dir", "", "Directory containing the exports (default is export_dir)")
}
