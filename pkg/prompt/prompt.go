// Package prompt assembles the system prompt sent ahead of every conversation.
package prompt

import (
	"fmt"
	"strings"

	"github.com/minhyannv/agent-stream-go/pkg/tools"
)

// Preamble is the fixed assistant persona.
const Preamble = "You are a kind and knowledgeable AI assistant. Use the available tools when they help answer the user's question."

// BuildSystemPrompt constructs the system prompt, including the tool catalog.
func BuildSystemPrompt(defs []tools.Definition) string {
	var sb strings.Builder
	sb.WriteString(Preamble)

	if md := ToPromptMarkdown(defs); md != "" {
		sb.WriteString("\n\n")
		sb.WriteString(md)
	}

	return strings.TrimSpace(sb.String())
}

// ToPromptMarkdown renders a markdown listing of available tools.
func ToPromptMarkdown(defs []tools.Definition) string {
	if len(defs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Tools\n")
	sb.WriteString("Call a tool instead of guessing when the answer depends on the current time or on arithmetic.\n\n")

	for _, def := range defs {
		name := sanitizeMarkdown(def.Name)
		desc := sanitizeMarkdown(def.Description)
		if desc == "" {
			desc = "No description provided."
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", name, desc))
	}

	return strings.TrimSpace(sb.String())
}

// sanitizeMarkdown keeps markdown fields single-line and trimmed.
func sanitizeMarkdown(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.TrimSpace(value)
}
