package quiz

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/phuclab/mathlms/internal/grading"
)

var (
	// ErrNoQuestions means the fetched question set was empty; no attempt is
	// created and the previous state is left untouched.
	ErrNoQuestions = errors.New("no questions for this level")
	// ErrNoActiveAttempt means the operation needs an attempt in progress.
	ErrNoActiveAttempt = errors.New("no active attempt")
)

// QuestionSource fetches the ordered question set for (grade, topic, level).
type QuestionSource interface {
	FetchQuestions(ctx context.Context, grade int, topic string, level int) ([]Question, error)
}

// Submitter reconciles a finished attempt with the external system of record.
type Submitter interface {
	SubmitAttempt(ctx context.Context, s Submission) (*Result, error)
}

// ViolationReporter forwards integrity events. Fire-and-forget: errors are
// logged and dropped.
type ViolationReporter interface {
	ReportViolation(ctx context.Context, email string, v Violation, topic string, level int) error
}

// Archiver keeps a local shadow record of completed attempts. confirmed says
// whether the remote submission returned a result.
type Archiver interface {
	ArchiveAttempt(ctx context.Context, a Attempt, confirmed bool) error
}

// HintResetter is the slice of the hint tracker the controller needs: hints
// are wiped whenever a new quiz starts.
type HintResetter interface {
	ResetAll()
}

// Controller drives one user's quiz lifecycle: NotStarted -> InProgress ->
// Completed. All attempt mutation is serialized behind its mutex; the finish
// transition is guarded to run at most once per attempt no matter which
// trigger (normal submit, anti-cheat, session conflict) fires first.
type Controller struct {
	mu      sync.Mutex
	attempt *Attempt
	result  *Result
	tick    chan struct{} // closed to suspend the elapsed-time tick

	email string
	role  string
	token string

	source  QuestionSource
	submit  Submitter
	report  ViolationReporter
	archive Archiver
	hints   HintResetter

	engine   *grading.Engine
	tickStep time.Duration
	now      func() time.Time
}

// Deps are the external collaborators of a Controller. Source and Submit are
// required; the rest may be nil.
type Deps struct {
	Source  QuestionSource
	Submit  Submitter
	Report  ViolationReporter
	Archive Archiver
	Hints   HintResetter
}

// Option tweaks controller internals; used by tests.
type Option func(*Controller)

func WithTickStep(d time.Duration) Option { return func(c *Controller) { c.tickStep = d } }
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(email, role, sessionToken string, deps Deps, opts ...Option) *Controller {
	c := &Controller{
		email:    email,
		role:     role,
		token:    sessionToken,
		source:   deps.Source,
		submit:   deps.Submit,
		report:   deps.Report,
		archive:  deps.Archive,
		hints:    deps.Hints,
		engine:   grading.NewEngine(),
		tickStep: time.Second,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start fetches the question set and begins a fresh attempt. An empty set
// fails the transition: no attempt is created and any previous completed
// attempt remains readable.
func (c *Controller) Start(ctx context.Context, grade int, topic string, level int) (*Attempt, error) {
	questions, err := c.source.FetchQuestions(ctx, grade, topic, level)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspendTickLocked()
	c.attempt = &Attempt{
		ID:        uuid.NewString(),
		UserEmail: c.email,
		Grade:     grade,
		Topic:     topic,
		Level:     level,
		Questions: questions,
		Answers:   make([]string, len(questions)),
		StartedAt: c.now(),
		Reason:    ReasonNormal,
	}
	c.result = nil
	if c.hints != nil {
		c.hints.ResetAll()
	}
	c.startTickLocked()
	snap := c.attempt.clone()
	return &snap, nil
}

// SetAnswer delegates to the answer store; permitted only in progress.
func (c *Controller) SetAnswer(index int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return ErrNoActiveAttempt
	}
	return c.attempt.SetAnswer(index, value)
}

// SetSubAnswer delegates the per-slot true/false update.
func (c *Controller) SetSubAnswer(index int, slot Slot, v Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return ErrNoActiveAttempt
	}
	return c.attempt.SetSubAnswer(index, slot, v)
}

// Navigate moves the current index by delta, clamped to the question range.
func (c *Controller) Navigate(delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return 0, ErrNoActiveAttempt
	}
	if c.attempt.Complete {
		return c.attempt.Current, ErrAttemptComplete
	}
	pos := c.attempt.Current + delta
	if pos < 0 {
		pos = 0
	}
	if max := len(c.attempt.Questions) - 1; pos > max {
		pos = max
	}
	c.attempt.Current = pos
	return pos, nil
}

// Finish ends the attempt: scores it, stamps the termination reason, then
// submits to the system of record. Idempotent: a completed attempt is never
// re-scored and the stored reason is never overwritten. The local Completed
// transition happens before the submission resolves; submission failure does
// not roll it back.
func (c *Controller) Finish(ctx context.Context, reason Reason) error {
	c.mu.Lock()
	a := c.attempt
	if a == nil {
		c.mu.Unlock()
		return ErrNoActiveAttempt
	}
	if a.Complete {
		c.mu.Unlock()
		return nil
	}

	qs := lo.Map(a.Questions, func(q Question, _ int) grading.Q {
		return grading.Q{Kind: string(q.Kind), AnswerKey: q.AnswerKey}
	})
	correct, count := c.engine.Score(qs, a.Answers)
	a.Correct = correct
	a.Score = count
	a.Complete = true
	a.EndedAt = c.now()
	a.Reason = reason
	c.suspendTickLocked()

	sub := Submission{
		Email:     c.email,
		Token:     c.token,
		Topic:     a.Topic,
		Grade:     a.Grade,
		Level:     a.Level,
		Score:     count,
		Total:     len(a.Questions),
		TimeSpent: a.ElapsedSec,
		Reason:    reason,
		Answers: lo.Map(a.Questions, func(q Question, i int) AnswerRecord {
			return AnswerRecord{QuestionID: q.ID, UserAnswer: a.Answers[i], Correct: correct[i]}
		}),
		Violations: []Violation{},
	}
	if reason != ReasonNormal {
		sub.Violations = append(sub.Violations, Violation{
			Type:      string(reason),
			Timestamp: c.now().UnixMilli(),
		})
	}
	snap := a.clone()
	c.mu.Unlock()

	go c.submitAndArchive(sub, snap)
	return nil
}

// submitAndArchive runs detached from the finish transition. The attempt is
// already Completed locally; a failed submission leaves local truth and the
// system of record divergent, which is accepted (no retry here).
func (c *Controller) submitAndArchive(sub Submission, snap Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var confirmed bool
	res, err := c.submit.SubmitAttempt(ctx, sub)
	switch {
	case err != nil:
		log.Printf("[ERROR] submit attempt %s: %v", snap.ID, err)
	case res == nil:
		log.Printf("[ERROR] submit attempt %s: no result returned", snap.ID)
	default:
		confirmed = true
		c.mu.Lock()
		// A late result belongs to the attempt it was submitted for. If a new
		// quiz has started in the meantime, drop it rather than attach a stale
		// verdict to the fresh attempt.
		if c.attempt != nil && c.attempt.ID == snap.ID {
			c.result = res
		}
		c.mu.Unlock()
	}

	if c.archive != nil {
		if err := c.archive.ArchiveAttempt(ctx, snap, confirmed); err != nil {
			log.Printf("[ERROR] archive attempt %s: %v", snap.ID, err)
		}
	}
}

// Snapshot returns a copy of the current attempt and, when the submission has
// resolved, the external result. ok is false before the first Start.
func (c *Controller) Snapshot() (a Attempt, res *Result, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return Attempt{}, nil, false
	}
	return c.attempt.clone(), c.result, true
}

// ActiveIncomplete reports whether an attempt is in progress.
func (c *Controller) ActiveIncomplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt != nil && !c.attempt.Complete
}

// startTickLocked begins the 1-second elapsed-time tick for the current
// attempt. The tick is suspended at finish and never resumes for that
// attempt. Caller holds c.mu.
func (c *Controller) startTickLocked() {
	stop := make(chan struct{})
	c.tick = stop
	step := c.tickStep
	go func() {
		t := time.NewTicker(step)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				c.mu.Lock()
				if c.attempt != nil && !c.attempt.Complete {
					c.attempt.ElapsedSec++
				}
				c.mu.Unlock()
			}
		}
	}()
}

func (c *Controller) suspendTickLocked() {
	if c.tick != nil {
		close(c.tick)
		c.tick = nil
	}
}

func (a *Attempt) clone() Attempt {
	cp := *a
	cp.Questions = append([]Question(nil), a.Questions...)
	cp.Answers = append([]string(nil), a.Answers...)
	cp.Correct = append([]bool(nil), a.Correct...)
	return cp
}
