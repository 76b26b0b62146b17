package grading

import "strings"

// Q is a minimal view of a question needed for scoring.
type Q struct {
	Kind      string
	AnswerKey string
}

// Strategy decides correctness for a single question kind.
type Strategy interface {
	Correct(q Q, answer string) bool
}

// Engine routes by question kind to the correct Strategy. Questions of an
// unknown kind, and unset answers, always score incorrect.
type Engine struct {
	strategies map[string]Strategy
}

// NewEngine installs the built-in strategies.
func NewEngine() *Engine {
	return &Engine{
		strategies: map[string]Strategy{
			"multiple-choice": exactMatchStrategy{},
			"true-false-set":  exactMatchStrategy{},
			"short-answer":    foldedMatchStrategy{},
		},
	}
}

// Correct scores one question.
func (e *Engine) Correct(q Q, answer string) bool {
	if answer == "" {
		return false
	}
	s, ok := e.strategies[q.Kind]
	if !ok {
		return false
	}
	return s.Correct(q, answer)
}

// Score computes per-question correctness and the count of correct answers.
// answers is index-aligned with qs; missing trailing entries score incorrect.
func (e *Engine) Score(qs []Q, answers []string) ([]bool, int) {
	correct := make([]bool, len(qs))
	count := 0
	for i, q := range qs {
		var ans string
		if i < len(answers) {
			ans = answers[i]
		}
		if e.Correct(q, ans) {
			correct[i] = true
			count++
		}
	}
	return correct, count
}

// exactMatchStrategy: exact, case-sensitive string equality. For
// true-false-set the full joined encoding must match; a single wrong slot
// marks the whole question incorrect. No partial credit.
type exactMatchStrategy struct{}

func (exactMatchStrategy) Correct(q Q, answer string) bool {
	return answer == q.AnswerKey
}

// foldedMatchStrategy: equality after trimming surrounding whitespace and
// case-folding both sides. Pure string compare; no numeric equivalence.
type foldedMatchStrategy struct{}

func (foldedMatchStrategy) Correct(q Q, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.AnswerKey))
}
