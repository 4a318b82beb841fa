package describe

// hype.go derives hypothetical retrieval questions from a clip summary.
// Each indexed question makes the summary findable by the kind of vague
// natural-language search a person types when recalling a moment.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mementolabs/capture-agent/internal/assets"
	"github.com/mementolabs/capture-agent/internal/llmtext"
)

// ErrCountMismatch is returned when the model does not produce exactly the
// requested number of questions. Output is never padded or truncated to
// fit; the indexing stage fails instead.
var ErrCountMismatch = errors.New("describe: hypothetical question count mismatch")

// QuestionGenerator produces exactly K paraphrase queries for a summary.
type QuestionGenerator struct {
	llm Describer
	k   int
}

// NewQuestionGenerator creates a generator asking for k questions per
// summary.
func NewQuestionGenerator(llm Describer, k int) *QuestionGenerator {
	return &QuestionGenerator{llm: llm, k: k}
}

// Generate prompts the model for exactly K casual memory-recall questions
// about the summary and parses the numbered-list response.
func (g *QuestionGenerator) Generate(ctx context.Context, summary string) ([]string, error) {
	prompt, err := assets.HypotheticalQuestionsPrompt(g.k)
	if err != nil {
		return nil, err
	}

	raw, err := g.llm.Ask(ctx, prompt, summary)
	if err != nil {
		return nil, fmt.Errorf("ask for hypothetical questions: %w", err)
	}

	questions, err := ParseQuestionList(raw, g.k)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(questions)).Msg("Hypothetical questions generated")
	return questions, nil
}

// ParseQuestionList parses a numbered or bulleted list response into
// exactly want cleaned question strings. Markdown fence wrapping is
// removed, blank lines are discarded, and numbering or bullet prefixes
// are stripped. Any other count returns ErrCountMismatch.
func ParseQuestionList(text string, want int) ([]string, error) {
	text = llmtext.StripMarkdownFences(text)

	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, stripListPrefix(line))
	}

	if len(questions) != want {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, want, len(questions))
	}
	return questions, nil
}

// stripListPrefix removes a leading "1.", "2)", "-", or "*" marker.
func stripListPrefix(line string) string {
	if line == "" {
		return line
	}
	if line[0] >= '0' && line[0] <= '9' || line[0] == '-' || line[0] == '*' {
		return strings.TrimSpace(strings.TrimLeft(line, "0123456789.*-) "))
	}
	return line
}
