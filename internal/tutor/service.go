// Package tutor is the AI-tutor collaborator: a hint-level-gated chat over a
// generative model, plus the per-question hint tracker that does the gating.
package tutor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Response is one tutor reply.
type Response struct {
	Message        string `json:"message"`
	HintLevel      int    `json:"hint_level"`
	IsFullSolution bool   `json:"is_full_solution"`
}

// Service wraps the generative model. The hint tracker is per session and is
// passed in by the caller; the service itself is stateless.
type Service struct {
	llm llms.Model
}

func NewService(llm llms.Model) *Service {
	return &Service{llm: llm}
}

// hintKeyword marks a message as an explicit hint request; only those advance
// the question's hint level.
const hintKeyword = "hint"

// Ask answers a student message about the current question. The reply is
// gated by the question's current hint level; an explicit hint request then
// advances the level for the next exchange. Model failures degrade to the
// per-level fallback reply, never to an error.
func (s *Service) Ask(ctx context.Context, tracker *HintTracker, message string, qctx *Context) Response {
	level := 0
	if qctx != nil && qctx.QuestionID != "" {
		level = tracker.Get(qctx.QuestionID)
	}
	if s.llm == nil {
		return FallbackResponse(level)
	}

	prompt := BuildSystemPrompt(level, qctx) + "\n\nStudent's message: " + message
	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithTemperature(0.7))
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("[ERROR] tutor ask: %v", err)
		}
		return FallbackResponse(level)
	}

	if qctx != nil && qctx.QuestionID != "" && strings.Contains(strings.ToLower(message), hintKeyword) {
		tracker.Increment(qctx.QuestionID)
	}
	return Response{
		Message:        strings.TrimSpace(reply),
		HintLevel:      level,
		IsFullSolution: level >= MaxHintLevel,
	}
}

// QuickHint returns a one-sentence nudge without touching hint levels.
func (s *Service) QuickHint(ctx context.Context, questionText string) string {
	prompt := fmt.Sprintf(`You are a math tutor. Give ONE short sentence hinting at how to
approach this problem. Do not solve it.

Question: %s`, questionText)
	if s.llm == nil {
		return "Identify the type of problem and which formula applies first."
	}
	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithTemperature(0.7))
	if err != nil || strings.TrimSpace(reply) == "" {
		return "Identify the type of problem and which formula applies first."
	}
	return strings.TrimSpace(reply)
}

// ExplainWrongAnswer gives the post-quiz review explanation for one missed
// question.
func (s *Service) ExplainWrongAnswer(ctx context.Context, questionText string, options []string, userAnswer, correctAnswer string) string {
	prompt := fmt.Sprintf(`You are a math tutor. A student answered a question incorrectly.
In two or three sentences, explain why their answer is wrong and why %s is correct.
Use LaTeX (in $) when needed.

Question: %s
Options: %s
Student chose: %s
Correct answer: %s`, correctAnswer, questionText, strings.Join(options, ", "), userAnswer, correctAnswer)
	if s.llm == nil {
		return fmt.Sprintf("The correct answer is %s. Check the worked solution for the full reasoning.", correctAnswer)
	}
	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, llms.WithTemperature(0.5))
	if err != nil || strings.TrimSpace(reply) == "" {
		return fmt.Sprintf("The correct answer is %s. Check the worked solution for the full reasoning.", correctAnswer)
	}
	return strings.TrimSpace(reply)
}
