// Package prompt assembles the system prompt sent ahead of every conversation.
package prompt

import (
	"fmt"
	"strings"

	"github.com/lennoxconsulting/aiops-assistant/pkg/tools"
)

const persona = `You are an expert technical Assistant designed to be able to assist with a wide range of IT tasks.
Assistant is constantly learning and improving, and its capabilities are constantly evolving. It is able to process and understand large amounts of text, and can use this knowledge to provide accurate and informative responses to a wide range of questions.
Additionally, Assistant is able to generate its own text based on the input it receives, allowing it to engage in discussions and provide explanations and descriptions on a wide range of IT topics.`

// BuildSystemPrompt constructs the system prompt, including tool metadata.
func BuildSystemPrompt(toolList []tools.Tool) string {
	var sb strings.Builder
	sb.WriteString(persona)

	if md := ToPromptMarkdown(toolList); md != "" {
		sb.WriteString("\n\n")
		sb.WriteString(md)
	}

	return strings.TrimSpace(sb.String())
}

// ToPromptMarkdown renders a markdown listing of available tools.
func ToPromptMarkdown(toolList []tools.Tool) string {
	if len(toolList) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Tools\n")
	sb.WriteString("Call a tool when the answer depends on data it can look up. Pass its input as free text. ")
	sb.WriteString("When no tool applies, answer directly.\n\n")

	for _, t := range toolList {
		desc := sanitizeMarkdown(t.Description())
		if desc == "" {
			desc = "No description provided."
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", sanitizeMarkdown(t.Name()), desc))
	}

	return strings.TrimSpace(sb.String())
}

// sanitizeMarkdown keeps markdown fields single-line and trimmed.
func sanitizeMarkdown(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.TrimSpace(value)
}
