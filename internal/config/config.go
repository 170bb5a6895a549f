package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the client configuration
type Config struct {
	APIURL      string `toml:"api_url" mapstructure:"api_url"`           // Base URL serving /api/chat
	WebURL      string `toml:"web_url" mapstructure:"web_url"`           // Base URL serving /documents/*.pdf
	ExportDir   string `toml:"export_dir" mapstructure:"export_dir"`     // Where chat-history-*.json files are written
	DownloadDir string `toml:"download_dir" mapstructure:"download_dir"` // Where documents are downloaded
	SidebarOpen bool   `toml:"sidebar_open" mapstructure:"sidebar_open"` // Initial sidebar state in the chat UI
	LogFile     string `toml:"log_file" mapstructure:"log_file"`         // Log file used by the chat UI
	LogLevel    string `toml:"log_level" mapstructure:"log_level"`       // debug, info, warn or error
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(configDir, downloadDir string) *Config {
	return &Config{
		APIURL:      "http://localhost:3000",
		WebURL:      "http://localhost:3000",
		ExportDir:   downloadDir,
		DownloadDir: downloadDir,
		SidebarOpen: true,
		LogFile:     filepath.Join(configDir, "suvidha.log"),
		LogLevel:    "warn",
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	var err error
	for _, field := range []*string{&config.APIURL, &config.WebURL} {
		if *field, err = expandEnvVar(*field); err != nil {
			return nil, err
		}
	}

	// Convert directories to absolute paths
	for _, field := range []*string{&config.ExportDir, &config.DownloadDir, &config.LogFile} {
		if *field == "" {
			continue
		}
		expanded, err := expandEnvVar(*field)
		if err != nil {
			return nil, err
		}
		absPath, err := ResolvePath(expanded)
		if err != nil {
			return nil, fmt.Errorf("error resolving path '%s': %v", *field, err)
		}
		*field = absPath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the URLs are absolute http(s) URLs
func (c *Config) Validate() error {
	fields := []struct{ name, value string }{
		{"api_url", c.APIURL},
		{"web_url", c.WebURL},
	}
	for _, f := range fields {
		name, value := f.name, f.value
		if value == "" {
			return fmt.Errorf("%s is not configured. Set it in config file (%s) or environment variable (SUVIDHA_%s)", name, name, strings.ToUpper(name))
		}
		u, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %v", name, value, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: expected an http or https URL", name, value)
		}
	}
	return nil
}
