package quiz

import "time"

// Kind is the assessable item type.
type Kind string

const (
	KindMultipleChoice Kind = "multiple-choice"
	KindTrueFalseSet   Kind = "true-false-set"
	KindShortAnswer    Kind = "short-answer"
)

// Question is one assessable item. Immutable once loaded into an attempt.
//
// AnswerKey format depends on Kind:
//   - multiple-choice: a single letter among A..D
//   - true-false-set:  a 4-slot encoding, e.g. "T-F-T-F"
//   - short-answer:    free text, compared after trim + case-fold
type Question struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	Text       string `json:"question_text"`
	OptionA    string `json:"option_a,omitempty"`
	OptionB    string `json:"option_b,omitempty"`
	OptionC    string `json:"option_c,omitempty"`
	OptionD    string `json:"option_d,omitempty"`
	AnswerKey  string `json:"answer_key,omitempty"`
	Solution   string `json:"solution,omitempty"`
	Grade      int    `json:"grade,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"` // cognitive level label, e.g. "comprehension"
	QuizLevel  int    `json:"quiz_level,omitempty"` // 1..5 ladder position
	ImageID    string `json:"image_id,omitempty"`
}

// Option returns the labeled option text for slot A..D.
func (q Question) Option(slot Slot) string {
	switch slot {
	case SlotA:
		return q.OptionA
	case SlotB:
		return q.OptionB
	case SlotC:
		return q.OptionC
	case SlotD:
		return q.OptionD
	}
	return ""
}

// Reason records why an attempt ended.
type Reason string

const (
	ReasonNormal          Reason = "normal"
	ReasonTabSwitch       Reason = "forced-tab-switch"
	ReasonSessionConflict Reason = "forced-session-conflict"
)

// Attempt is one run through a fixed question set. Mutated only through the
// Controller; once Complete it is frozen apart from the late-arriving Result.
type Attempt struct {
	ID          string     `json:"id"`
	UserEmail   string     `json:"user_email"`
	Grade       int        `json:"grade"`
	Topic       string     `json:"topic"`
	Level       int        `json:"level"`
	Questions   []Question `json:"questions"`
	Answers     []string   `json:"answers"` // index-aligned with Questions; "" = unset
	Current     int        `json:"current"`
	Complete    bool       `json:"complete"`
	Score       int        `json:"score"`
	Correct     []bool     `json:"correct,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     time.Time  `json:"ended_at,omitempty"`
	Reason      Reason     `json:"reason"`
	TabSwitches int        `json:"tab_switches"`
	ElapsedSec  int        `json:"elapsed_sec"`
}

// Result is the external system of record's verdict for a submitted attempt.
type Result struct {
	Passed     bool    `json:"passed"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message,omitempty"`
	Theory     *Theory `json:"theory,omitempty"`
	CanAdvance bool    `json:"can_advance,omitempty"`
	Reason     Reason  `json:"submission_reason,omitempty"`
}

// Theory is remediation content attached to a failed attempt's result.
type Theory struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Examples string `json:"examples,omitempty"`
	Tips     string `json:"tips,omitempty"`
	Grade    int    `json:"grade,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Level    int    `json:"level,omitempty"`
}

// AnswerRecord is the per-question line of a submission payload.
type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	UserAnswer string `json:"user_answer"`
	Correct    bool   `json:"correct"`
}

// Violation describes one detected integrity event.
type Violation struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Count     int    `json:"count,omitempty"`
}

// Submission is the full attempt payload sent to the system of record.
type Submission struct {
	Email      string         `json:"email"`
	Token      string         `json:"session_token"`
	Topic      string         `json:"topic"`
	Grade      int            `json:"grade"`
	Level      int            `json:"level"`
	Score      int            `json:"score"`
	Total      int            `json:"total_questions"`
	Answers    []AnswerRecord `json:"answers"`
	TimeSpent  int            `json:"time_spent"`
	Reason     Reason         `json:"submission_reason"`
	Violations []Violation    `json:"violations"`
}
