package grading_test

import (
	"testing"

	"github.com/phuclab/mathlms/internal/grading"
)

func TestCorrectMultipleChoice(t *testing.T) {
	e := grading.NewEngine()
	q := grading.Q{Kind: "multiple-choice", AnswerKey: "B"}

	cases := []struct {
		answer string
		want   bool
	}{
		{"B", true},
		{"b", false}, // letter match is case-sensitive
		{"A", false},
		{"", false},
		{" B", false},
	}
	for _, c := range cases {
		if got := e.Correct(q, c.answer); got != c.want {
			t.Errorf("Correct(%q) = %v, want %v", c.answer, got, c.want)
		}
	}
}

func TestCorrectTrueFalseSetAllOrNothing(t *testing.T) {
	e := grading.NewEngine()
	q := grading.Q{Kind: "true-false-set", AnswerKey: "T-F-T-F"}

	if !e.Correct(q, "T-F-T-F") {
		t.Error("full match should score correct")
	}
	// One wrong slot fails the whole question.
	if e.Correct(q, "T-F-T-T") {
		t.Error("single wrong slot must score incorrect")
	}
	if e.Correct(q, "T-F-T-N") {
		t.Error("unset slot must score incorrect")
	}
	if e.Correct(q, "T-F-T") {
		t.Error("short encoding must score incorrect")
	}
}

func TestCorrectShortAnswerFolded(t *testing.T) {
	e := grading.NewEngine()
	q := grading.Q{Kind: "short-answer", AnswerKey: "x = 5"}

	cases := []struct {
		answer string
		want   bool
	}{
		{"x = 5", true},
		{"  x = 5  ", true},
		{"X = 5", true},
		{"x=5", false}, // string compare, not algebraic
		{"5", false},
		{"", false},
	}
	for _, c := range cases {
		if got := e.Correct(q, c.answer); got != c.want {
			t.Errorf("Correct(%q) = %v, want %v", c.answer, got, c.want)
		}
	}
}

func TestCorrectUnknownKind(t *testing.T) {
	e := grading.NewEngine()
	if e.Correct(grading.Q{Kind: "essay", AnswerKey: "x"}, "x") {
		t.Error("unknown kind must score incorrect")
	}
}

func TestScore(t *testing.T) {
	e := grading.NewEngine()
	qs := []grading.Q{
		{Kind: "multiple-choice", AnswerKey: "A"},
		{Kind: "true-false-set", AnswerKey: "T-T-F-F"},
		{Kind: "short-answer", AnswerKey: "12"},
		{Kind: "multiple-choice", AnswerKey: "D"},
	}
	// Last answer missing entirely.
	answers := []string{"A", "T-T-F-T", " 12 "}

	correct, count := e.Score(qs, answers)
	want := []bool{true, false, true, false}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if len(correct) != len(want) {
		t.Fatalf("len(correct) = %d, want %d", len(correct), len(want))
	}
	for i := range want {
		if correct[i] != want[i] {
			t.Errorf("correct[%d] = %v, want %v", i, correct[i], want[i])
		}
	}
}
