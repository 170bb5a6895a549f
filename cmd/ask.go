package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/longkey1/suvidha/internal/chat"
	"github.com/longkey1/suvidha/internal/config"
	"github.com/longkey1/suvidha/internal/tui"
	"github.com/spf13/cobra"
)

var (
	useEditor  bool
	jsonOutput bool
)

// errRequestFailed makes the process exit non-zero after the fallback reply
// has been printed
var errRequestFailed = errors.New("the request to the assistant failed")

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Ask the assistant a single question and print the answer with its citations.

If no question is provided as an argument, it reads from stdin.
If --editor flag is set, it opens the default editor (from EDITOR environment variable) to compose the question.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Get question from arguments, editor, or stdin
		var question string
		if useEditor {
			question, err = getMessageFromEditor()
			if err != nil {
				return fmt.Errorf("getting message from editor: %w", err)
			}
		} else if len(args) > 0 {
			question = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			question = strings.TrimSpace(string(input))
		}

		sess := chat.NewSession(newClient(cfg), chat.WithLogger(logger))
		out := cmd.OutOrStdout()
		return ask(cmd.Context(), sess, question, out, jsonOutput, markdownRenderer(out))
	},
}

// ask runs one turn on sess and prints the assistant message to w
func ask(ctx context.Context, sess *chat.Session, question string, w io.Writer, asJSON bool, markdown func(string) string) error {
	turn, err := sess.Begin(question)
	if err != nil {
		return err
	}
	reply, sendErr := sess.Send(ctx, turn)
	msg := sess.Complete(turn, reply, sendErr)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encoding reply: %w", err)
		}
	} else {
		fmt.Fprint(w, markdown(tui.FormatReply(msg.Content, msg.Citations)))
		if !strings.HasSuffix(msg.Content, "\n") {
			fmt.Fprintln(w)
		}
	}

	if sendErr != nil || reply == nil {
		return errRequestFailed
	}
	return nil
}

func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "suvidha-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %v", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	// Open the editor
	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %v", err)
	}

	// Read the edited content
	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %v", err)
	}

	return strings.TrimSpace(string(content)), nil
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose the question")
	askCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the reply as JSON")
}
