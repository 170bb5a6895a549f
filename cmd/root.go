/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/longkey1/suvidha/internal/config"
	"github.com/longkey1/suvidha/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool

	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "suvidha",
	Short: "A terminal client for the GFR & PM Assistant",
	Long: `suvidha is a command-line client for the GFR & PM Assistant.
Ask questions about the General Financial Rules (GFR) 2017 and the
Procurement Manual (PM) 2025 and get answers with rule citations.
You can configure the tool using a TOML configuration file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logging.Options{
			Level:   viper.GetString("log_level"),
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	// Without a subcommand, start the interactive chat
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/suvidha/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// userConfigDir returns $HOME/.config/suvidha
func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "suvidha"), nil
}

// defaultDownloadDir returns $HOME/Downloads
func defaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix and automatic env
	viper.SetEnvPrefix("SUVIDHA") // Set prefix for environment variables
	viper.AutomaticEnv()          // read in environment variables that match

	configDir, err := userConfigDir()
	cobra.CheckErr(err)
	downloads, err := defaultDownloadDir()
	cobra.CheckErr(err)

	defaultConfig := config.NewDefaultConfig(configDir, downloads)

	// Set default values
	viper.SetDefault("api_url", defaultConfig.APIURL)
	viper.SetDefault("web_url", defaultConfig.WebURL)
	viper.SetDefault("export_dir", defaultConfig.ExportDir)
	viper.SetDefault("download_dir", defaultConfig.DownloadDir)
	viper.SetDefault("sidebar_open", defaultConfig.SidebarOpen)
	viper.SetDefault("log_file", defaultConfig.LogFile)
	viper.SetDefault("log_level", defaultConfig.LogLevel)

	// Bind environment variables
	viper.BindEnv("api_url", "SUVIDHA_API_URL")
	viper.BindEnv("web_url", "SUVIDHA_WEB_URL")
	viper.BindEnv("export_dir", "SUVIDHA_EXPORT_DIR")
	viper.BindEnv("download_dir", "SUVIDHA_DOWNLOAD_DIR")
	viper.BindEnv("log_level", "SUVIDHA_LOG_LEVEL")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// Load system-wide config first (lower priority)
		systemConfigPaths := []string{
			"/etc/suvidha",
			"/usr/local/etc/suvidha",
		}

		systemConfigLoaded := false
		for _, path := range systemConfigPaths {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		// Try to read system-wide config
		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		viper.AddConfigPath(configDir)
		if systemConfigLoaded {
			// Merge user config on top of system config
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			} else if verbose {
				fmt.Fprintln(os.Stderr, "Merged user config:", viper.ConfigFileUsed())
			}
		} else {
			// No system config, just read user config
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				}
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "Environment variables:")
		fmt.Fprintln(os.Stderr, "  SUVIDHA_API_URL:", viper.GetString("api_url"))
		fmt.Fprintln(os.Stderr, "  SUVIDHA_WEB_URL:", viper.GetString("web_url"))
		fmt.Fprintln(os.Stderr, "  SUVIDHA_EXPORT_DIR:", viper.GetString("export_dir"))
		fmt.Fprintln(os.Stderr, "  SUVIDHA_LOG_LEVEL:", viper.GetString("log_level"))
	}
}
