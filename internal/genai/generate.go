// Package genai generates question-bank and theory content for teachers via
// the external generative-model API: single-question generation, theory
// drafting, OCR of uploaded exams, OCR cleanup and whole-exam extraction.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/phuclab/mathlms/internal/quiz"
)

// ErrNoModel means the service was built without an API key.
var ErrNoModel = errors.New("generative model not configured")

type Service struct {
	llm llms.Model
}

func NewService(llm llms.Model) *Service {
	return &Service{llm: llm}
}

// latexEscapeRules is appended to every JSON-producing prompt. Models keep
// emitting single-backslash LaTeX, which breaks the JSON string escaping.
const latexEscapeRules = `
[JSON AND LATEX FORMAT RULES - IMPORTANT]:
1. Output must be a single valid JSON value, with no markdown code fences.
2. Every mathematical expression must be LaTeX wrapped in $.
3. Inside JSON strings, LaTeX backslashes MUST be escaped (write \\frac, not \frac).
   - WRONG: "$\frac{1}{2}$"
   - RIGHT: "$\\frac{1}{2}$"
4. Double-check the JSON syntax before replying.
`

// questionDraft is the model's output shape; field names are part of the
// prompt contract below.
type questionDraft struct {
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
	AnswerKey    string `json:"answer_key"`
	Solution     string `json:"solution"`
	Kind         string `json:"question_type,omitempty"`
	ImageID      string `json:"image_id,omitempty"`
}

func (d questionDraft) toQuestion(grade int, topic, difficulty string, kind quiz.Kind) quiz.Question {
	return quiz.Question{
		Kind:       kind,
		Text:       d.QuestionText,
		OptionA:    d.OptionA,
		OptionB:    d.OptionB,
		OptionC:    d.OptionC,
		OptionD:    d.OptionD,
		AnswerKey:  d.AnswerKey,
		Solution:   d.Solution,
		Grade:      grade,
		Topic:      topic,
		Difficulty: difficulty,
		ImageID:    d.ImageID,
	}
}

func formatSpecFor(kind quiz.Kind) string {
	switch kind {
	case quiz.KindMultipleChoice:
		return `Required JSON output format:
{
  "question_text": "the question (LaTeX in $)",
  "option_a": "option A", "option_b": "option B",
  "option_c": "option C", "option_d": "option D",
  "answer_key": "A",
  "solution": "full worked solution (LaTeX in $)"
}`
	case quiz.KindTrueFalseSet:
		return `Required JSON output format:
{
  "question_text": "the shared stem (LaTeX in $)",
  "option_a": "statement a", "option_b": "statement b",
  "option_c": "statement c", "option_d": "statement d",
  "answer_key": "T-F-T-F",
  "solution": "explanation for each statement (LaTeX in $)"
}
The answer_key has exactly four slots, T or F, joined by dashes.`
	default:
		return `Required JSON output format:
{
  "question_text": "the question (LaTeX in $)",
  "answer_key": "a numeric value or short expression",
  "solution": "full worked solution (LaTeX in $)"
}`
	}
}

// GenerateQuestion drafts one question of the given kind. sourceText, when
// present (usually OCR output from the resource library), grounds the
// generation; its inline images are swapped out to keep the prompt small.
func (s *Service) GenerateQuestion(ctx context.Context, grade int, topic, difficulty string, kind quiz.Kind, sourceText string) (quiz.Question, error) {
	if s.llm == nil {
		return quiz.Question{}, ErrNoModel
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create one math question for grade %d, topic %q, cognitive level %q, question kind %q.\n",
		grade, topic, difficulty, kind)
	if sourceText != "" {
		clean, _ := ExtractImages(sourceText)
		fmt.Fprintf(&b, "\n[IMPORTANT] Base the question on the following source text (small numeric variations are fine):\n\"\"\"%s\"\"\"\n", clean)
	}
	b.WriteString(latexEscapeRules)
	b.WriteString(formatSpecFor(kind))

	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, b.String(),
		llms.WithTemperature(0.7), llms.WithJSONMode())
	if err != nil {
		return quiz.Question{}, fmt.Errorf("generate question: %w", err)
	}
	var draft questionDraft
	if err := ExtractJSON(reply, &draft); err != nil {
		return quiz.Question{}, fmt.Errorf("generate question: %w", err)
	}
	return draft.toQuestion(grade, topic, difficulty, kind), nil
}

// GenerateTheory drafts remediation content for a topic/level.
func (s *Service) GenerateTheory(ctx context.Context, grade int, topic string, level int) (quiz.Theory, error) {
	if s.llm == nil {
		return quiz.Theory{}, ErrNoModel
	}
	prompt := fmt.Sprintf(`Write a short math theory handout.
Grade: %d
Topic: %s
Level: %d (higher means more advanced)
%s
Required JSON output format:
{
  "title": "a short lesson title",
  "content": "the main theory, LaTeX in $",
  "examples": "one or two worked examples, LaTeX in $",
  "tips": "memorable tips"
}`, grade, topic, level, latexEscapeRules)

	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithTemperature(0.7), llms.WithJSONMode())
	if err != nil {
		return quiz.Theory{}, fmt.Errorf("generate theory: %w", err)
	}
	var th quiz.Theory
	if err := ExtractJSON(reply, &th); err != nil {
		return quiz.Theory{}, fmt.Errorf("generate theory: %w", err)
	}
	th.Grade, th.Topic, th.Level = grade, topic, level
	return th, nil
}

// ExtractText OCRs an uploaded image or PDF through the multimodal model.
func (s *Service) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if s.llm == nil {
		return "", ErrNoModel
	}
	prompt := `Act as a professional math OCR tool. Extract ALL text and formulas
from this file.

Rules:
1. Convert every formula to standard LaTeX (wrapped in $...$ or $$...$$).
2. If the file holds several questions, extract all of them.
3. Return only the raw extracted content, with no commentary.`

	resp, err := s.llm.GenerateContent(ctx, []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, data),
				llms.TextPart(prompt),
			},
		},
	}, llms.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", fmt.Errorf("ocr: empty model output")
	}
	return resp.Choices[0].Content, nil
}

// CorrectText streams a cleanup pass over OCR output: spelling and grammar
// fixes only, structure and image placeholders preserved. onChunk receives
// raw streamed text (placeholders still in place); the returned string has
// images restored.
func (s *Service) CorrectText(ctx context.Context, text string, onChunk func(string)) (string, error) {
	if s.llm == nil {
		return "", ErrNoModel
	}
	clean, images := ExtractImages(text)
	prompt := fmt.Sprintf(`You are a copy editor. Fix spelling and grammar mistakes in the
following OCR output.

Rules:
1. KEEP the markdown structure (headings, lists, tables, emphasis) unchanged.
2. KEEP every {{__IMG_n__}} placeholder exactly as it is. Never delete or edit them.
3. KEEP every LaTeX formula ($...$ or $$...$$) unchanged.
4. Fix only OCR artifacts: misread words, broken punctuation, garbled grammar.
5. Return only the corrected text, no preamble.

Original text:
"""
%s
"""`, clean)

	var full strings.Builder
	_, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithTemperature(0.1),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			full.Write(chunk)
			if onChunk != nil {
				onChunk(string(chunk))
			}
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("correct text: %w", err)
	}
	return RestoreImages(full.String(), images), nil
}

// ParseExamMarkdown extracts every question in an OCRed exam into structured
// questions, classifying each by its option shape.
func (s *Service) ParseExamMarkdown(ctx context.Context, markdown string, grade int, topic string) ([]quiz.Question, error) {
	if s.llm == nil {
		return nil, ErrNoModel
	}
	clean, images := ExtractImages(markdown)
	prompt := fmt.Sprintf(`You are a math exam extraction system. Parse the markdown below
and extract EVERY question into a JSON array. Exams may hold many questions
(e.g. question 1 through 22); do not skip any.

[QUESTION KIND CLASSIFICATION]:
Inspect each question's options to pick "question_type":
1. "multiple-choice": options labeled with capital letters A., B., C., D.
   Put the text after each label into option_a..option_d.
2. "true-false-set": sub-statements labeled with lowercase a), b), c), d).
   Put each statement into option_a..option_d.
3. "short-answer": no lettered options; usually "Compute...", "Find...".
   Leave option_a..option_d empty.

[JSON OUTPUT RULES]:
- Output a JSON array: [ {...}, {...} ].
- Required fields: "question_type", "question_text", "option_a", "option_b", "option_c", "option_d".
- "answer_key": fill when the exam provides one ("A", "T-F-F-T", or "15"); else empty.
- "solution": the worked solution when present.
- "image_id": when a question references an image ({{__IMG_n__}}), copy that placeholder here.
- LaTeX backslashes must be escaped inside JSON strings (\\frac, not \frac).

[EXAM TEXT]:
"""
%s
"""`, clean)

	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithTemperature(0.1), llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("parse exam: %w", err)
	}
	var drafts []questionDraft
	if err := ExtractJSON(reply, &drafts); err != nil {
		return nil, fmt.Errorf("parse exam: %w", err)
	}

	out := make([]quiz.Question, 0, len(drafts))
	for _, d := range drafts {
		kind := quiz.Kind(d.Kind)
		switch kind {
		case quiz.KindMultipleChoice, quiz.KindTrueFalseSet, quiz.KindShortAnswer:
		default:
			log.Printf("[INFO] parse exam: skipping question with unknown kind %q", d.Kind)
			continue
		}
		q := d.toQuestion(grade, topic, "comprehension", kind)
		q.QuizLevel = 1
		if tag, ok := images[d.ImageID]; ok {
			q.ImageID = tag
		}
		out = append(out, q)
	}
	return out, nil
}
