// Tests for prompt generation helpers.
package prompt

import (
	"strings"
	"testing"

	"github.com/lennoxconsulting/aiops-assistant/pkg/tools"
)

// TestToPromptMarkdown validates markdown formatting of tools.
func TestToPromptMarkdown(t *testing.T) {
	toolList := []tools.Tool{
		tools.Func("lookup", "Looks things\nup", func(string) string { return "" }),
		tools.Func("blank", "", func(string) string { return "" }),
	}

	md := ToPromptMarkdown(toolList)
	if md == "" {
		t.Fatal("expected markdown output")
	}
	if !containsAll(md, []string{
		"## Available Tools",
		"- **lookup**: Looks things up",
		"- **blank**: No description provided.",
	}) {
		t.Fatalf("markdown missing expected content:\n%s", md)
	}
}

// TestBuildSystemPrompt verifies system prompt composition.
func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(tools.DatabaseProbe())
	if !containsAll(prompt, []string{
		"expert technical Assistant",
		"Available Tools",
		"database_list_servers",
		"database_list_databases",
		"database_health_check",
	}) {
		t.Fatalf("prompt missing expected content:\n%s", prompt)
	}
}

// TestBuildSystemPromptWithoutTools keeps only the persona.
func TestBuildSystemPromptWithoutTools(t *testing.T) {
	prompt := BuildSystemPrompt(nil)
	if strings.Contains(prompt, "Available Tools") {
		t.Fatalf("unexpected tool section:\n%s", prompt)
	}
	if !strings.HasPrefix(prompt, "You are an expert technical Assistant") {
		t.Fatalf("unexpected prompt:\n%s", prompt)
	}
}

// containsAll reports whether all substrings exist in text.
func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}
