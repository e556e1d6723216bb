package client

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	toolNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	paramStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// RenderTools writes one block per tool: name, description and parameters.
func RenderTools(w io.Writer, tools []*mcp.Tool) error {
	if len(tools) == 0 {
		_, err := fmt.Fprintln(w, "no tools available")
		return err
	}
	var b strings.Builder
	for i, t := range tools {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(toolNameStyle.Render(t.Name))
		b.WriteString("\n  ")
		b.WriteString(t.Description)
		b.WriteString("\n")
		for _, p := range schemaParams(t.InputSchema) {
			b.WriteString("  ")
			b.WriteString(paramStyle.Render(p))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderResult writes the result text, styled by outcome.
func RenderResult(w io.Writer, res *CallResult) error {
	style := okStyle
	if res.IsError {
		style = errorStyle
	}
	_, err := fmt.Fprintln(w, style.Render(res.Text))
	return err
}

// schemaParams lists "name (required)" entries from an object schema. The
// schema arrives as decoded JSON.
func schemaParams(schema any) []string {
	m, ok := schema.(map[string]any)
	if !ok {
		return nil
	}
	props, _ := m["properties"].(map[string]any)
	required := map[string]bool{}
	if list, ok := m["required"].([]any); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		line := name
		if required[name] {
			line += " (required)"
		}
		if prop, ok := props[name].(map[string]any); ok {
			if desc, _ := prop["description"].(string); desc != "" {
				line += ": " + desc
			}
		}
		out = append(out, line)
	}
	return out
}
