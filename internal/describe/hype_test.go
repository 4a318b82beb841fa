package describe

import (
	"context"
	"errors"
	"testing"
)

type scriptedLLM struct {
	response string
	err      error
	prompt   string
	context  string
}

func (s *scriptedLLM) Describe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedLLM) Ask(_ context.Context, prompt, userContext string) (string, error) {
	s.prompt = prompt
	s.context = userContext
	return s.response, s.err
}

func TestParseQuestionList_NumberedList(t *testing.T) {
	text := "1. When did the cat knock over the mug?\n2. What happened in the kitchen?\n3. Was there a crash this morning?"
	got, err := ParseQuestionList(text, 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got[0] != "When did the cat knock over the mug?" {
		t.Errorf("prefix not stripped: %q", got[0])
	}
	if got[2] != "Was there a crash this morning?" {
		t.Errorf("unexpected third question: %q", got[2])
	}
}

func TestParseQuestionList_BulletsAndBlankLines(t *testing.T) {
	text := "- first question?\n\n* second question?\n\n3) third question?\n"
	got, err := ParseQuestionList(text, 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"first question?", "second question?", "third question?"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("question %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestParseQuestionList_FencedResponse(t *testing.T) {
	text := "```\n1. a?\n2. b?\n3. c?\n```"
	got, err := ParseQuestionList(text, 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got[0] != "a?" {
		t.Errorf("fence not stripped: %q", got[0])
	}
}

func TestParseQuestionList_TooFew(t *testing.T) {
	_, err := ParseQuestionList("1. only one?", 3)
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestParseQuestionList_TooMany(t *testing.T) {
	_, err := ParseQuestionList("1. a?\n2. b?\n3. c?\n4. d?", 3)
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestParseQuestionList_UnprefixedLines(t *testing.T) {
	got, err := ParseQuestionList("what happened?\nwho was there?", 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got[0] != "what happened?" || got[1] != "who was there?" {
		t.Errorf("unexpected questions: %v", got)
	}
}

func TestGenerate_ExactCount(t *testing.T) {
	llm := &scriptedLLM{response: "1. a?\n2. b?\n3. c?"}
	g := NewQuestionGenerator(llm, 3)

	got, err := g.Generate(context.Background(), "the dog chased a ball")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 questions, got %d", len(got))
	}
	if llm.context != "the dog chased a ball" {
		t.Errorf("summary not passed as context: %q", llm.context)
	}
	if llm.prompt == "" {
		t.Error("expected a rendered system prompt")
	}
}

func TestGenerate_CountMismatchNotPadded(t *testing.T) {
	llm := &scriptedLLM{response: "1. a?\n2. b?"}
	g := NewQuestionGenerator(llm, 3)

	_, err := g.Generate(context.Background(), "summary")
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestGenerate_ModelError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("quota exceeded")}
	g := NewQuestionGenerator(llm, 3)

	if _, err := g.Generate(context.Background(), "summary"); err == nil {
		t.Error("expected error from model failure")
	}
}
