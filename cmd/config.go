package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/longkey1/suvidha/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, api_url, web_url, export_dir, download_dir, sidebar_open, log_file, log_level"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  suvidha config                # Show all configuration
  suvidha config api_url        # Show only the chat API URL
  suvidha config export_dir     # Show only the export directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration from file
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		if len(args) > 0 {
			return printConfigField(cmd.OutOrStdout(), cfg, args[0])
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfigField(w io.Writer, cfg *config.Config, field string) error {
	switch strings.ToLower(field) {
	case "configfile":
		fmt.Fprintln(w, viper.ConfigFileUsed())
	case "api_url", "apiurl":
		fmt.Fprintln(w, maskURL(cfg.APIURL))
	case "web_url", "weburl":
		fmt.Fprintln(w, maskURL(cfg.WebURL))
	case "export_dir", "exportdir":
		fmt.Fprintln(w, cfg.ExportDir)
	case "download_dir", "downloaddir":
		fmt.Fprintln(w, cfg.DownloadDir)
	case "sidebar_open", "sidebaropen":
		fmt.Fprintln(w, cfg.SidebarOpen)
	case "log_file", "logfile":
		fmt.Fprintln(w, cfg.LogFile)
	case "log_level", "loglevel":
		fmt.Fprintln(w, cfg.LogLevel)
	default:
		return fmt.Errorf("unknown field: %s (available fields: %s)", field, configFields)
	}
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "ConfigFile: %s\n", viper.ConfigFileUsed())
	fmt.Fprintf(w, "APIURL: %s\n", maskURL(cfg.APIURL))
	fmt.Fprintf(w, "WebURL: %s\n", maskURL(cfg.WebURL))
	fmt.Fprintf(w, "ExportDir: %s\n", cfg.ExportDir)
	fmt.Fprintf(w, "DownloadDir: %s\n", cfg.DownloadDir)
	fmt.Fprintf(w, "SidebarOpen: %v\n", cfg.SidebarOpen)
	fmt.Fprintf(w, "LogFile: %s\n", cfg.LogFile)
	fmt.Fprintf(w, "LogLevel: %s\n", cfg.LogLevel)
}

// maskURL hides the password of a URL with embedded credentials
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

func init() {
	rootCmd.AddCommand(configCmd)
}
