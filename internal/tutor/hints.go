package tutor

import "sync"

// MaxHintLevel caps how much the tutor may reveal about one question:
// 0 general hint, 1 first step, 2 elimination guidance, 3 full solution.
const MaxHintLevel = 3

// HintTracker maps question IDs to hint levels for one user session.
// Entries are created lazily on the first hint request and wiped when a new
// quiz starts or the user logs out.
type HintTracker struct {
	mu     sync.Mutex
	levels map[string]int
}

func NewHintTracker() *HintTracker {
	return &HintTracker{levels: map[string]int{}}
}

// Get returns the current level for a question, 0 if unseen.
func (t *HintTracker) Get(questionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.levels[questionID]
}

// Increment advances the level by one, saturating at MaxHintLevel, and
// returns the new level.
func (t *HintTracker) Increment(questionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	lvl := t.levels[questionID] + 1
	if lvl > MaxHintLevel {
		lvl = MaxHintLevel
	}
	t.levels[questionID] = lvl
	return lvl
}

// Reset forgets a single question.
func (t *HintTracker) Reset(questionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.levels, questionID)
}

// ResetAll wipes every entry. Called at quiz start and at logout.
func (t *HintTracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.levels = map[string]int{}
}
