package tui

import (
	"fmt"
	"strings"

	"github.com/longkey1/suvidha/internal/docs"
)

// sidebarView lists the reference documents and the session details.
func (m Model) sidebarView(height int) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Documents"))
	b.WriteString("\n")
	for _, doc := range docs.All() {
		fmt.Fprintf(&b, "%s\n", doc.Source)
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s · %s", doc.Size, doc.LastUpdated)))
		b.WriteString("\n")
		if m.webURL != "" {
			b.WriteString(dimStyle.Render(doc.URL(m.webURL)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Session"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "ID:       %s\n", m.session.GetShortID())
	fmt.Fprintf(&b, "Messages: %d\n", m.session.Len())
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Exports"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.exportDir))

	return sidebarStyle.Height(height).MaxHeight(height).Render(b.String())
}
