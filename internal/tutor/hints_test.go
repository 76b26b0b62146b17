package tutor_test

import (
	"strings"
	"testing"

	"github.com/phuclab/mathlms/internal/tutor"
)

func TestHintLevelsSaturate(t *testing.T) {
	tr := tutor.NewHintTracker()

	if got := tr.Get("q1"); got != 0 {
		t.Fatalf("fresh question level = %d, want 0", got)
	}

	want := []int{1, 2, 3, 3, 3}
	for i, w := range want {
		if got := tr.Increment("q1"); got != w {
			t.Fatalf("increment #%d = %d, want %d", i+1, got, w)
		}
	}
	if got := tr.Get("q1"); got != tutor.MaxHintLevel {
		t.Fatalf("saturated level = %d, want %d", got, tutor.MaxHintLevel)
	}
}

func TestHintLevelsPerQuestion(t *testing.T) {
	tr := tutor.NewHintTracker()
	tr.Increment("q1")
	tr.Increment("q1")
	if got := tr.Get("q2"); got != 0 {
		t.Fatalf("q2 level = %d, want 0", got)
	}
}

func TestResetAndResetAll(t *testing.T) {
	tr := tutor.NewHintTracker()
	tr.Increment("q1")
	tr.Increment("q2")

	tr.Reset("q1")
	if tr.Get("q1") != 0 || tr.Get("q2") != 1 {
		t.Fatalf("Reset touched the wrong question: q1=%d q2=%d", tr.Get("q1"), tr.Get("q2"))
	}

	tr.ResetAll()
	if tr.Get("q2") != 0 {
		t.Fatalf("ResetAll left q2 at %d", tr.Get("q2"))
	}
}

func TestBuildSystemPromptGatesAnswer(t *testing.T) {
	qctx := &tutor.Context{
		QuestionID:    "q1",
		QuestionText:  "What is $2+2$?",
		CorrectAnswer: "4",
	}
	for level := 0; level < tutor.MaxHintLevel; level++ {
		p := tutor.BuildSystemPrompt(level, qctx)
		if containsAnswer(p) {
			t.Errorf("level %d prompt reveals the answer", level)
		}
	}
	if !containsAnswer(tutor.BuildSystemPrompt(tutor.MaxHintLevel, qctx)) {
		t.Error("full-solution prompt must carry the answer")
	}
}

func containsAnswer(prompt string) bool {
	// The answer only ever appears on its dedicated line.
	return strings.Contains(prompt, "Correct answer: 4")
}
