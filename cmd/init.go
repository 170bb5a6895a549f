package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/longkey1/suvidha/internal/config"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/suvidha/config.toml by default.
You can specify a different location using the --config option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := userConfigDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %v", err)
		}
		downloads, err := defaultDownloadDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %v", err)
		}

		// Set config file path
		configFile := filepath.Join(configDir, "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		path, err := writeDefaultConfig(configFile, downloads)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
		return nil
	},
}

// writeDefaultConfig creates configFile with the default settings. It fails
// when the file already exists.
func writeDefaultConfig(configFile, downloads string) (string, error) {
	// Create config directory
	configDir := filepath.Dir(configFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %v", err)
	}

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return "", fmt.Errorf("config file already exists at: %s", configFile)
	}

	cfg := config.NewDefaultConfig(configDir, downloads)

	f, err := os.Create(configFile)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %v", err)
	}
	defer f.Close()

	// Encode config to TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %v", err)
	}
	return configFile, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
