package quiz_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phuclab/mathlms/internal/quiz"
)

/* ---------------- fakes for the controller's collaborators ---------------- */

type fakeSource struct {
	questions []quiz.Question
	err       error
}

func (f *fakeSource) FetchQuestions(ctx context.Context, grade int, topic string, level int) ([]quiz.Question, error) {
	return f.questions, f.err
}

type fakeSubmitter struct {
	mu          sync.Mutex
	submissions []quiz.Submission
	result      *quiz.Result
	err         error
	done        chan struct{} // receives one value per submission
}

func newFakeSubmitter(res *quiz.Result, err error) *fakeSubmitter {
	return &fakeSubmitter{result: res, err: err, done: make(chan struct{}, 8)}
}

func (f *fakeSubmitter) SubmitAttempt(ctx context.Context, s quiz.Submission) (*quiz.Result, error) {
	f.mu.Lock()
	f.submissions = append(f.submissions, s)
	f.mu.Unlock()
	f.done <- struct{}{}
	return f.result, f.err
}

func (f *fakeSubmitter) wait(t *testing.T) quiz.Submission {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for submission")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissions[len(f.submissions)-1]
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

type fakeReporter struct {
	mu         sync.Mutex
	violations []quiz.Violation
	done       chan struct{}
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{done: make(chan struct{}, 8)}
}

func (f *fakeReporter) ReportViolation(ctx context.Context, email string, v quiz.Violation, topic string, level int) error {
	f.mu.Lock()
	f.violations = append(f.violations, v)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type fakeArchiver struct {
	mu       sync.Mutex
	attempts []quiz.Attempt
	flags    []bool
	done     chan struct{}
}

func newFakeArchiver() *fakeArchiver {
	return &fakeArchiver{done: make(chan struct{}, 8)}
}

func (f *fakeArchiver) ArchiveAttempt(ctx context.Context, a quiz.Attempt, confirmed bool) error {
	f.mu.Lock()
	f.attempts = append(f.attempts, a)
	f.flags = append(f.flags, confirmed)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type fakeHints struct{ resets int }

func (f *fakeHints) ResetAll() { f.resets++ }

func threeQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: "q1", Kind: quiz.KindMultipleChoice, AnswerKey: "A"},
		{ID: "q2", Kind: quiz.KindTrueFalseSet, AnswerKey: "T-F-T-F"},
		{ID: "q3", Kind: quiz.KindShortAnswer, AnswerKey: "12"},
	}
}

func newTestController(src *fakeSource, sub *fakeSubmitter, opts ...quiz.Option) (*quiz.Controller, *fakeArchiver, *fakeHints) {
	arch := newFakeArchiver()
	hints := &fakeHints{}
	deps := quiz.Deps{Source: src, Submit: sub, Archive: arch, Hints: hints}
	return quiz.NewController("alice@school.test", "student", "tok-1", deps, opts...), arch, hints
}

/* ---------------- tests ---------------- */

func TestStartCreatesAttemptAndResetsHints(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	c, _, hints := newTestController(src, newFakeSubmitter(&quiz.Result{}, nil))

	a, err := c.Start(context.Background(), 10, "algebra", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a.ID == "" || len(a.Questions) != 3 || len(a.Answers) != 3 {
		t.Fatalf("unexpected attempt shape: %+v", a)
	}
	if a.Complete || a.Reason != quiz.ReasonNormal {
		t.Fatalf("fresh attempt should be in progress with reason normal, got %+v", a)
	}
	if hints.resets != 1 {
		t.Fatalf("hint resets = %d, want 1", hints.resets)
	}
}

func TestStartEmptySetFailsTransition(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	sub := newFakeSubmitter(&quiz.Result{Passed: true}, nil)
	c, _, _ := newTestController(src, sub)

	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Finish(context.Background(), quiz.ReasonNormal); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	sub.wait(t)

	// A start that fetches zero questions leaves the completed attempt alone.
	src.questions = nil
	if _, err := c.Start(context.Background(), 10, "algebra", 3); !errors.Is(err, quiz.ErrNoQuestions) {
		t.Fatalf("got %v, want ErrNoQuestions", err)
	}
	a, _, ok := c.Snapshot()
	if !ok || !a.Complete {
		t.Fatal("previous completed attempt must remain readable")
	}
}

func TestFinishScoresAndSubmits(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	res := &quiz.Result{Passed: true, Percentage: 66.7}
	sub := newFakeSubmitter(res, nil)
	c, arch, _ := newTestController(src, sub)

	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.SetAnswer(0, "A"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAnswer(1, "T-F-T-T"); err != nil { // one slot wrong
		t.Fatal(err)
	}
	if err := c.SetAnswer(2, " 12 "); err != nil {
		t.Fatal(err)
	}
	if err := c.Finish(context.Background(), quiz.ReasonNormal); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got := sub.wait(t)
	if got.Score != 2 || got.Total != 3 {
		t.Fatalf("submission score %d/%d, want 2/3", got.Score, got.Total)
	}
	if got.Reason != quiz.ReasonNormal || len(got.Violations) != 0 {
		t.Fatalf("normal finish must carry no violations: %+v", got)
	}
	if got.Answers[1].Correct {
		t.Error("true-false with one wrong slot must score incorrect")
	}

	select {
	case <-arch.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for archive")
	}
	arch.mu.Lock()
	defer arch.mu.Unlock()
	if len(arch.flags) != 1 || !arch.flags[0] {
		t.Fatalf("archive confirmed flags = %v, want [true]", arch.flags)
	}

	// The external result becomes visible once the submission resolves.
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, r, _ := c.Snapshot()
		if r != nil {
			if !r.Passed {
				t.Fatal("stored result mismatch")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("result never stored")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFinishIdempotent(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	sub := newFakeSubmitter(&quiz.Result{}, nil)
	c, _, _ := newTestController(src, sub)

	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Finish(context.Background(), quiz.ReasonNormal); err != nil {
		t.Fatalf("first Finish: %v", err)
	}
	// Later triggers are swallowed and never overwrite the reason.
	if err := c.Finish(context.Background(), quiz.ReasonTabSwitch); err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	sub.wait(t)
	time.Sleep(50 * time.Millisecond)
	if n := sub.count(); n != 1 {
		t.Fatalf("submissions = %d, want exactly 1", n)
	}
	a, _, _ := c.Snapshot()
	if a.Reason != quiz.ReasonNormal {
		t.Fatalf("reason = %q, want the first trigger's reason", a.Reason)
	}
}

func TestFinishFailedSubmitKeepsLocalCompletion(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	sub := newFakeSubmitter(nil, errors.New("sheet api down"))
	c, arch, _ := newTestController(src, sub)

	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Finish(context.Background(), quiz.ReasonNormal); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	sub.wait(t)

	a, res, _ := c.Snapshot()
	if !a.Complete {
		t.Fatal("local completion must survive a failed submission")
	}
	if res != nil {
		t.Fatal("no result should be stored on failure")
	}

	select {
	case <-arch.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for archive")
	}
	arch.mu.Lock()
	defer arch.mu.Unlock()
	if arch.flags[0] {
		t.Fatal("archive must record the submission as unconfirmed")
	}
}

// blockingSubmitter parks every submission until released, to widen the race
// window between a finished attempt's submission and the next quiz start.
type blockingSubmitter struct {
	result  *quiz.Result
	entered chan struct{}
	release chan struct{}
}

func newBlockingSubmitter(res *quiz.Result) *blockingSubmitter {
	return &blockingSubmitter{result: res, entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingSubmitter) SubmitAttempt(ctx context.Context, s quiz.Submission) (*quiz.Result, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.result, nil
}

func TestLateResultDroppedAfterNewStart(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	sub := newBlockingSubmitter(&quiz.Result{Passed: true, Percentage: 100})
	hints := &fakeHints{}
	c := quiz.NewController("alice@school.test", "student", "tok-1", quiz.Deps{
		Source: src, Submit: sub, Hints: hints,
	})

	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Finish(context.Background(), quiz.ReasonNormal); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	select {
	case <-sub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never started")
	}

	// A new quiz begins while the old attempt's submission is still in flight.
	if _, err := c.Start(context.Background(), 10, "algebra", 3); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	close(sub.release)

	// The late result belongs to the finished attempt and must never attach
	// to the fresh one.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		a, res, _ := c.Snapshot()
		if a.Complete {
			t.Fatal("new attempt should be in progress")
		}
		if res != nil {
			t.Fatalf("stale result leaked onto the new attempt: %+v", res)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNavigateClamped(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	c, _, _ := newTestController(src, newFakeSubmitter(&quiz.Result{}, nil))

	if _, err := c.Navigate(1); !errors.Is(err, quiz.ErrNoActiveAttempt) {
		t.Fatalf("navigate before start: got %v", err)
	}
	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if pos, _ := c.Navigate(-5); pos != 0 {
		t.Errorf("backward past start: pos = %d, want 0", pos)
	}
	if pos, _ := c.Navigate(10); pos != 2 {
		t.Errorf("forward past end: pos = %d, want 2", pos)
	}
	if pos, _ := c.Navigate(-1); pos != 1 {
		t.Errorf("step back: pos = %d, want 1", pos)
	}
}

func TestElapsedTickSuspendedAtFinish(t *testing.T) {
	src := &fakeSource{questions: threeQuestions()}
	sub := newFakeSubmitter(&quiz.Result{}, nil)
	c, _, _ := newTestController(src, sub, quiz.WithTickStep(5*time.Millisecond))

	if _, err := c.Start(context.Background(), 10, "algebra", 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		a, _, _ := c.Snapshot()
		if a.ElapsedSec > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tick never advanced")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Finish(context.Background(), quiz.ReasonNormal); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	a1, _, _ := c.Snapshot()
	time.Sleep(50 * time.Millisecond)
	a2, _, _ := c.Snapshot()
	if a1.ElapsedSec != a2.ElapsedSec {
		t.Fatalf("elapsed advanced after finish: %d -> %d", a1.ElapsedSec, a2.ElapsedSec)
	}
	sub.wait(t)
}
