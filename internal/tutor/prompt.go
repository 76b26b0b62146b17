package tutor

import (
	"fmt"
	"strings"
)

// Context is what the tutor may know about the question under discussion.
type Context struct {
	QuestionID    string   `json:"question_id,omitempty"`
	QuestionText  string   `json:"question_text,omitempty"`
	Options       []string `json:"options,omitempty"`
	UserAnswer    string   `json:"user_answer,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
}

const basePrompt = `You are a friendly, patient math tutor helping a high-school student.
Use LaTeX for formulas (wrapped in $). Keep answers short and encouraging.`

// levelPrompts gate how much the tutor may reveal, by hint level.
var levelPrompts = [MaxHintLevel + 1]string{
	`HINT LEVEL 0 (overview only):
- Point at the general approach and the kind of problem this is.
- Do NOT solve it or give concrete steps.
- Encourage the student to think it through themselves.`,

	`HINT LEVEL 1 (first step):
- Give the first step and recall the relevant formula or theorem.
- Leave the remaining steps to the student.`,

	`HINT LEVEL 2 (elimination guidance):
- Walk through the reasoning step by step, but stop before the final result.
- Help rule out wrong options and explain why they fail.`,

	`HINT LEVEL 3 (full solution):
- Solve the problem completely, step by step, and state the correct answer.
- Explain why the other options are wrong and summarize what to remember.
- Remind the student to redo a similar problem on their own.`,
}

// BuildSystemPrompt assembles the gated system prompt for one exchange.
func BuildSystemPrompt(hintLevel int, ctx *Context) string {
	if hintLevel < 0 {
		hintLevel = 0
	}
	if hintLevel > MaxHintLevel {
		hintLevel = MaxHintLevel
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n")
	b.WriteString(levelPrompts[hintLevel])

	if ctx != nil {
		b.WriteString("\n\nPROBLEM CONTEXT:\n")
		fmt.Fprintf(&b, "- Question: %s\n", orNone(ctx.QuestionText))
		fmt.Fprintf(&b, "- Options: %s\n", orNone(strings.Join(ctx.Options, ", ")))
		fmt.Fprintf(&b, "- Student's answer so far: %s\n", orNone(ctx.UserAnswer))
		if hintLevel >= MaxHintLevel {
			fmt.Fprintf(&b, "- Correct answer: %s\n", orNone(ctx.CorrectAnswer))
		} else {
			b.WriteString("- Correct answer: do not reveal at this level\n")
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "not available"
	}
	return s
}

// fallbacks are returned when the AI backend is unavailable, one per level.
var fallbacks = [MaxHintLevel + 1]string{
	"Read the problem carefully and identify what type of problem it is. That is the most important first step!",
	"Try writing down the formulas related to this topic. Reviewing the theory section for this chapter will help.",
	"Try eliminating the options that are clearly wrong first, then check which remaining option satisfies the problem's conditions.",
	"The tutor is unavailable right now. You can see the full worked solution after submitting the quiz.",
}

// FallbackResponse is the deterministic reply for a given hint level.
func FallbackResponse(hintLevel int) Response {
	if hintLevel < 0 {
		hintLevel = 0
	}
	if hintLevel > MaxHintLevel {
		hintLevel = MaxHintLevel
	}
	return Response{
		Message:        fallbacks[hintLevel],
		HintLevel:      hintLevel,
		IsFullSolution: hintLevel >= MaxHintLevel,
	}
}
