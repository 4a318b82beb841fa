// Package llmtext cleans structured text pulled out of LLM responses,
// which may arrive wrapped in markdown code fences or padded with prose.
package llmtext

import "strings"

// StripMarkdownFences removes a ``` or ```text style fence wrapping from a
// response. Returns the content between the fences, or the original text
// when no fence wrapping is found.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}

	return strings.Join(lines[1:end], "\n")
}
