package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/longkey1/suvidha/internal/backend"
	"github.com/longkey1/suvidha/internal/chat"
	"github.com/longkey1/suvidha/internal/config"
	"github.com/longkey1/suvidha/internal/logging"
	"github.com/longkey1/suvidha/internal/tui"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var plain bool

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat with the GFR & PM Assistant.

The full-screen interface is used when running in a terminal:
  enter    send the message       ctrl+e  export the history
  ctrl+l   clear the history      ctrl+b  toggle the sidebar
  tab      switch chat/about      ctrl+c  quit

With --plain (or when stdin/stdout is not a terminal) a line-based prompt
is used instead. Type '/help' there for the available commands.

While the chat runs, edits to api_url in the config file apply to the next question.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if plain || !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
			return runPlainChat(cmd.Context(), cfg)
		}
		return runTUI(cmd.Context(), cfg)
	},
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	// The alternate screen owns the terminal, so logs go to a file
	fileLogger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: verbose,
	})
	if err != nil {
		return err
	}
	logger = fileLogger

	client := newClient(cfg)
	sess := chat.NewSession(client, chat.WithLogger(logger))
	logger.Info("Starting chat", zap.String("api_url", client.BaseURL()), zap.String("session", sess.ID()))

	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}

	// Requests are only cancelled when the program exits
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(ctx, tui.Options{
		Session:   sess,
		Layout:    tui.NewLayout(cfg.SidebarOpen),
		ExportDir: cfg.ExportDir,
		WebURL:    cfg.WebURL,
		Logger:    logger,
		Style:     style,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			logger.Debug("Config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
			if msg := applyConfigChange(client); msg != "" {
				p.Send(tui.StatusMsg(msg))
			}
		})
		viper.WatchConfig()
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running chat: %w", err)
	}
	return nil
}

// applyConfigChange re-reads the configuration and points client at a
// changed api_url. It returns a status line, or "" when nothing changed.
func applyConfigChange(client *backend.Client) string {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("Ignoring invalid config change", zap.Error(err))
		return "Config not applied: " + err.Error()
	}
	if strings.TrimRight(cfg.APIURL, "/") == client.BaseURL() {
		return ""
	}
	client.SetBaseURL(cfg.APIURL)
	logger.Info("API URL changed", zap.String("api_url", client.BaseURL()))
	return "API URL changed to " + client.BaseURL()
}

func runPlainChat(ctx context.Context, cfg *config.Config) error {
	client := newClient(cfg)
	sess := chat.NewSession(client, chat.WithLogger(logger))

	// Input history stays in memory for up-arrow recall only
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	r := &repl{
		session:   sess,
		line:      line,
		out:       os.Stdout,
		errOut:    os.Stderr,
		exportDir: cfg.ExportDir,
		now:       time.Now,
		markdown:  markdownRenderer(os.Stdout),
	}
	return r.run(ctx)
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&plain, "plain", false, "Use a line-based prompt instead of the full-screen interface")
}
