package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/longkey1/suvidha/internal/chat"
	"github.com/longkey1/suvidha/internal/export"
	"github.com/longkey1/suvidha/internal/tui"
)

// lineReader reads one line of input after printing prompt and keeps the
// in-memory history used for recall
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// repl is the line-based chat used by 'chat --plain'
type repl struct {
	session   *chat.Session
	line      lineReader
	out       io.Writer
	errOut    io.Writer
	exportDir string
	now       func() time.Time
	markdown  func(string) string
}

func (r *repl) run(ctx context.Context) error {
	// Print session header
	fmt.Fprintf(r.errOut, "\n=== GFR & PM Assistant [%s] ===\n", r.session.GetShortID())
	fmt.Fprintf(r.errOut, "Type '/help' for commands, '/exit' or 'Ctrl+D' to quit\n")
	fmt.Fprintf(r.errOut, "===================================\n\n")

	for {
		input, err := r.line.Prompt("You> ")
		if err != nil {
			// EOF (Ctrl+D), Ctrl+C or a closed input
			fmt.Fprintln(r.errOut, "\nGoodbye!")
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		// Handle special commands
		if strings.HasPrefix(input, "/") {
			if r.handleCommand(input) {
				continue
			}
			return nil
		}

		r.session.SetInput(input)
		stop := startSpinner(r.errOut)
		msg, err := r.session.SubmitInput(ctx)
		stop()
		if err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(r.out, "\nAssistant>\n%s\n", r.markdown(tui.FormatReply(msg.Content, msg.Citations)))
	}
}

// confirm asks a y/N question on the input line
func (r *repl) confirm(prompt string) bool {
	response, err := r.line.Prompt(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}

// handleCommand processes slash commands.
// Returns true to continue the loop, false to exit
func (r *repl) handleCommand(command string) bool {
	command = strings.ToLower(strings.TrimSpace(command))

	switch command {
	case "/help", "/h":
		fmt.Fprintln(r.errOut, "\nAvailable commands:")
		fmt.Fprintln(r.errOut, "  /help, /h     - Show this help message")
		fmt.Fprintln(r.errOut, "  /info, /i     - Show session information")
		fmt.Fprintln(r.errOut, "  /export, /e   - Export the chat history to a JSON file")
		fmt.Fprintln(r.errOut, "  /clear, /c    - Clear the chat history")
		fmt.Fprintln(r.errOut, "  /exit, /quit  - Exit")
		fmt.Fprintln(r.errOut, "  Ctrl+D        - Exit")
		fmt.Fprintln(r.errOut, "")
		return true

	case "/info", "/i":
		fmt.Fprintln(r.errOut, "\nSession Information:")
		fmt.Fprintf(r.errOut, "  ID: %s\n", r.session.GetShortID())
		fmt.Fprintf(r.errOut, "  Full ID: %s\n", r.session.ID())
		fmt.Fprintf(r.errOut, "  Messages: %d\n", r.session.Len())
		fmt.Fprintf(r.errOut, "  Export directory: %s\n", r.exportDir)
		fmt.Fprintln(r.errOut, "")
		return true

	case "/export", "/e":
		path, err := export.Write(r.exportDir, r.session, r.now())
		switch {
		case errors.Is(err, chat.ErrEmptyHistory):
			fmt.Fprintln(r.errOut, "No messages to export.")
		case err != nil:
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
		default:
			fmt.Fprintf(r.errOut, "Chat history exported to: %s\n", path)
		}
		return true

	case "/clear", "/c":
		cleared, err := r.session.Clear(chat.ConfirmFunc(r.confirm))
		switch {
		case errors.Is(err, chat.ErrEmptyHistory):
			fmt.Fprintln(r.errOut, "No messages to clear.")
		case cleared:
			fmt.Fprintln(r.errOut, "Chat history cleared.")
		default:
			fmt.Fprintln(r.errOut, "Clear cancelled.")
		}
		return true

	case "/exit", "/quit", "/q":
		fmt.Fprintln(r.errOut, "Goodbye!")
		return false

	default:
		fmt.Fprintf(r.errOut, "Unknown command: %s (type '/help' for available commands)\n", command)
		return true
	}
}

// startSpinner animates a waiting indicator on w until the returned function
// is called.
func startSpinner(w io.Writer) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(spinners) {
			fmt.Fprintf(w, "\r%s Thinking...", spinners[i])
			select {
			case <-done:
				// Clear the spinner line
				fmt.Fprint(w, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
