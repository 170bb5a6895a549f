package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/longkey1/suvidha/internal/chat"
)

// FormatCitation renders one citation as markdown lines:
// "<source> - Rule <n>", "Page <p>" and the cited text.
func FormatCitation(c chat.Citation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s - Rule %s**  \n", c.Source, c.RuleNumber)
	fmt.Fprintf(&b, "Page %d  \n", c.Page)
	b.WriteString(c.Text)
	return b.String()
}

// FormatReply renders an assistant reply body followed by its citations.
func FormatReply(content string, citations []chat.Citation) string {
	if len(citations) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n\n---\n\n**Citations**\n")
	for _, c := range citations {
		b.WriteString("\n")
		for _, line := range strings.Split(FormatCitation(c), "\n") {
			b.WriteString("> " + line + "\n")
		}
	}
	return b.String()
}

func formatMessage(msg chat.Message) string {
	switch msg.Role {
	case chat.RoleUser:
		return "### You\n\n" + msg.Content
	default:
		return "### Assistant\n\n" + FormatReply(msg.Content, msg.Citations)
	}
}

// renderer turns the history into viewport content. The glamour renderer is
// rebuilt whenever the wrap width changes.
type renderer struct {
	style string
	width int
	term  *glamour.TermRenderer
}

func newRenderer(style string) *renderer {
	return &renderer{style: style}
}

func (r *renderer) setWidth(width int) {
	if width < 20 {
		width = 20
	}
	if r.term != nil && width == r.width {
		return
	}
	r.width = width
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.term = nil
		return
	}
	r.term = term
}

func (r *renderer) markdown(md string) string {
	if r.term == nil {
		return md
	}
	out, err := r.term.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (r *renderer) messages(messages []chat.Message) string {
	if len(messages) == 0 {
		return dimStyle.Render("Ask a question about GFR 2017 or PM 2025 to get started.")
	}

	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if r.term == nil {
			parts = append(parts, plainMessage(msg))
			continue
		}
		parts = append(parts, r.markdown(formatMessage(msg)))
	}
	return strings.Join(parts, "\n\n")
}

func plainMessage(msg chat.Message) string {
	if msg.Role == chat.RoleUser {
		return userRoleStyle.Render(" You ") + "\n" + msg.Content
	}
	return assistantRoleStyle.Render(" Assistant ") + "\n" + FormatReply(msg.Content, msg.Citations)
}
