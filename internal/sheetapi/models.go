package sheetapi

// User as stored in the student roster sheet. Progress maps "grade_topic"
// keys to the highest unlocked level.
type User struct {
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	Role       string         `json:"role"` // student|teacher|admin
	Class      string         `json:"class,omitempty"`
	TotalScore int            `json:"total_score,omitempty"`
	Progress   map[string]int `json:"progress,omitempty"`
}

// LeaderboardEntry is one row of the ranking sheet.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	Name       string `json:"name"`
	Class      string `json:"class,omitempty"`
	TotalScore int    `json:"total_score"`
}

// StudentResult is one archived submission, as the teacher dashboard sees it.
type StudentResult struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Topic      string  `json:"topic"`
	Grade      int     `json:"grade"`
	Level      int     `json:"level"`
	Score      int     `json:"score"`
	Total      int     `json:"total_questions"`
	Percentage float64 `json:"percentage"`
	TimeSpent  int     `json:"time_spent"`
	Reason     string  `json:"submission_reason"`
	Submitted  string  `json:"submitted_at"`
}

// Document is a teacher-uploaded source text (usually OCR output) kept in the
// resource library for question generation.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Grade     int    `json:"grade,omitempty"`
	Topic     string `json:"topic,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
