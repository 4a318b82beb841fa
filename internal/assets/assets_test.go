package assets

import (
	"strings"
	"testing"
)

func TestDescribeGIFPromptEmbedded(t *testing.T) {
	if strings.TrimSpace(DescribeGIFPrompt) == "" {
		t.Error("describe prompt is empty")
	}
}

func TestHypotheticalQuestionsPrompt_CountRendered(t *testing.T) {
	prompt, err := HypotheticalQuestionsPrompt(3)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(prompt, "3") {
		t.Errorf("question count not rendered into prompt: %s", prompt)
	}
	if strings.Contains(prompt, "{{") {
		t.Errorf("unrendered template markers remain: %s", prompt)
	}
}
