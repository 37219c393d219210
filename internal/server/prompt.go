package server

import (
	"fmt"
	"strings"

	"github.com/verso-dev/folio/internal/chat"
)

// buildSystemPrompt scopes the assistant to the portfolio owner and, when
// present, one project plus its README.
func buildSystemPrompt(owner, site string, project *chat.ProjectContext, readme string) string {
	if project == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant on %s's portfolio", owner)
	if site != "" {
		fmt.Fprintf(&b, " (%s)", site)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "You are discussing the project %q.\n", project.Title)
	fmt.Fprintf(&b, "Project summary: %s", project.Excerpt)
	if readme != "" {
		fmt.Fprintf(&b, "\n\nHere is the project's README:\n%s", readme)
	}
	b.WriteString("\n\nHelp answer questions about this project. Be concise and helpful. Use markdown formatting when appropriate.")
	return b.String()
}
