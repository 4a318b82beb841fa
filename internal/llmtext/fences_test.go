package llmtext

import "testing"

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "1. a?\n2. b?", "1. a?\n2. b?"},
		{"plain fences", "```\n1. a?\n2. b?\n```", "1. a?\n2. b?"},
		{"language tag", "```text\n1. a?\n```", "1. a?"},
		{"surrounding whitespace", "  ```\nline\n```  ", "line"},
		{"too short to be fenced", "```", "```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
