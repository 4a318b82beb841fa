// Package assets provides embedded static assets for the agent.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time, keeping prompt wording out of Go string literals.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

// DescribeGIFPrompt instructs the vision model to narrate an animated GIF
// as a short silent video, concretely and without embellishment.
//
//go:embed prompts/describe-gif.txt
var DescribeGIFPrompt string

//go:embed prompts/hypothetical-questions.txt
var hypotheticalQuestionsTemplate string

var hypotheticalTmpl = template.Must(
	template.New("hypothetical-questions").Parse(hypotheticalQuestionsTemplate))

// HypotheticalQuestionsPrompt renders the HyPE question-generation system
// prompt for the requested question count.
func HypotheticalQuestionsPrompt(count int) (string, error) {
	var buf bytes.Buffer
	if err := hypotheticalTmpl.Execute(&buf, struct{ Count int }{Count: count}); err != nil {
		return "", fmt.Errorf("render hypothetical questions prompt: %w", err)
	}
	return buf.String(), nil
}
