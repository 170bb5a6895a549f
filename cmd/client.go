package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/longkey1/suvidha/internal/backend"
	"github.com/longkey1/suvidha/internal/config"
	"golang.org/x/term"
)

// newClient creates the chat API client for the configuration
func newClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.APIURL, backend.WithLogger(logger))
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// markdownRenderer returns a function rendering markdown for w. Output that is
// not a terminal gets the markdown unchanged.
func markdownRenderer(w io.Writer) func(string) string {
	if !isTerminal(w) {
		return func(md string) string { return md }
	}

	width := 80
	if cols, _, err := term.GetSize(int(w.(*os.File).Fd())); err == nil && cols > 0 && cols < width {
		width = cols
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(md string) string { return md }
	}
	return func(md string) string {
		out, err := renderer.Render(md)
		if err != nil {
			return md
		}
		return strings.TrimRight(out, "\n") + "\n"
	}
}
