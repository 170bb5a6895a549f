package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("SUVIDHA_TEST_URL", "http://backend.internal:8000")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "http://localhost:3000", want: "http://localhost:3000"},
		{name: "dollar syntax", input: "$SUVIDHA_TEST_URL", want: "http://backend.internal:8000"},
		{name: "brace syntax", input: "${SUVIDHA_TEST_URL}", want: "http://backend.internal:8000"},
		{name: "unset variable", input: "$SUVIDHA_TEST_UNSET", want: ""},
		{name: "home directory", input: "~/Downloads", want: filepath.Join(home, "Downloads")},
		{name: "tilde only", input: "~", want: home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVar(tt.input)
			if err != nil {
				t.Fatalf("expandEnvVar() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVar() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	abs := filepath.Join(t.TempDir(), "exports")
	got, err := ResolvePath(abs)
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if got != abs {
		t.Errorf("ResolvePath(abs) = %v, want %v", got, abs)
	}

	cwd, _ := os.Getwd()
	got, err = ResolvePath("exports")
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if want := filepath.Join(cwd, "exports"); got != want {
		t.Errorf("ResolvePath(rel) without config = %v, want %v", got, want)
	}

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgFile, []byte("api_url = \"http://localhost:3000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	got, err = ResolvePath("exports")
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if want := filepath.Join(dir, "exports"); got != want {
		t.Errorf("ResolvePath(rel) with config = %v, want %v", got, want)
	}
}

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SUVIDHA_TEST_API", "https://suvidha.example")

	dir := t.TempDir()
	defaults := NewDefaultConfig(dir, filepath.Join(dir, "downloads"))
	viper.SetDefault("api_url", "$SUVIDHA_TEST_API")
	viper.SetDefault("web_url", defaults.WebURL)
	viper.SetDefault("export_dir", defaults.ExportDir)
	viper.SetDefault("download_dir", defaults.DownloadDir)
	viper.SetDefault("sidebar_open", defaults.SidebarOpen)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("log_level", defaults.LogLevel)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIURL != "https://suvidha.example" {
		t.Errorf("APIURL = %v, want expanded env value", cfg.APIURL)
	}
	if cfg.WebURL != "http://localhost:3000" {
		t.Errorf("WebURL = %v", cfg.WebURL)
	}
	if cfg.ExportDir != filepath.Join(dir, "downloads") {
		t.Errorf("ExportDir = %v", cfg.ExportDir)
	}
	if cfg.LogFile != filepath.Join(dir, "suvidha.log") {
		t.Errorf("LogFile = %v", cfg.LogFile)
	}
	if !cfg.SidebarOpen {
		t.Errorf("SidebarOpen = false, want true")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		apiURL  string
		webURL  string
		wantErr bool
	}{
		{name: "valid", apiURL: "http://localhost:3000", webURL: "https://suvidha.example", wantErr: false},
		{name: "empty api url", apiURL: "", webURL: "http://localhost:3000", wantErr: true},
		{name: "missing scheme", apiURL: "localhost:3000", webURL: "http://localhost:3000", wantErr: true},
		{name: "unsupported scheme", apiURL: "http://localhost:3000", webURL: "ftp://files.example", wantErr: true},
		{name: "missing host", apiURL: "http://", webURL: "http://localhost:3000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIURL: tt.apiURL, WebURL: tt.webURL}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
