package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phuclab/mathlms/internal/session"
)

type scriptedChecker struct {
	mu      sync.Mutex
	results []checkResult
	calls   int
}

type checkResult struct {
	st  session.Status
	err error
}

func (c *scriptedChecker) CheckSession(ctx context.Context, token string) (session.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i >= len(c.results) {
		i = len(c.results) - 1
	}
	r := c.results[i]
	return r.st, r.err
}

type monitorSpy struct {
	mu            sync.Mutex
	forceFinished int
	loggedOut     int
	finishResult  bool
	acted         chan struct{}
}

func newMonitorSpy(finishResult bool) *monitorSpy {
	return &monitorSpy{finishResult: finishResult, acted: make(chan struct{}, 8)}
}

func (s *monitorSpy) forceFinish(ctx context.Context) bool {
	s.mu.Lock()
	s.forceFinished++
	s.mu.Unlock()
	s.acted <- struct{}{}
	return s.finishResult
}

func (s *monitorSpy) logout() {
	s.mu.Lock()
	s.loggedOut++
	s.mu.Unlock()
	s.acted <- struct{}{}
}

func runMonitor(t *testing.T, checker session.Checker, spy *monitorSpy) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	m := &session.Monitor{
		Checker:     checker,
		SheetToken:  "tok-1",
		Interval:    5 * time.Millisecond,
		ForceFinish: spy.forceFinish,
		Logout:      spy.logout,
	}
	go m.Run(ctx)
	return cancel
}

func waitActed(t *testing.T, spy *monitorSpy) {
	t.Helper()
	select {
	case <-spy.acted:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never acted")
	}
}

func TestMonitorConflictForceFinishes(t *testing.T) {
	checker := &scriptedChecker{results: []checkResult{
		{st: session.Status{Valid: true}},
		{st: session.Status{Valid: false, Reason: session.ReasonConflict}},
	}}
	spy := newMonitorSpy(true)
	cancel := runMonitor(t, checker, spy)
	defer cancel()

	waitActed(t, spy)
	spy.mu.Lock()
	defer spy.mu.Unlock()
	if spy.forceFinished == 0 {
		t.Fatal("conflict must force-finish the active quiz")
	}
	if spy.loggedOut != 0 {
		t.Fatal("a successful force-finish must not log out")
	}
}

func TestMonitorConflictWithoutQuizLogsOut(t *testing.T) {
	checker := &scriptedChecker{results: []checkResult{
		{st: session.Status{Valid: false, Reason: session.ReasonConflict}},
	}}
	spy := newMonitorSpy(false)
	cancel := runMonitor(t, checker, spy)
	defer cancel()

	// First the failed force-finish, then the logout fallback.
	waitActed(t, spy)
	waitActed(t, spy)
	spy.mu.Lock()
	defer spy.mu.Unlock()
	if spy.loggedOut == 0 {
		t.Fatal("conflict with no active quiz must log out")
	}
}

func TestMonitorIgnoresErrorsAndOtherReasons(t *testing.T) {
	checker := &scriptedChecker{results: []checkResult{
		{err: errors.New("network")},
		{st: session.Status{Valid: false, Reason: "expired"}},
		{st: session.Status{Valid: false}}, // invalid with no reason
		{st: session.Status{Valid: true}},
	}}
	spy := newMonitorSpy(true)
	cancel := runMonitor(t, checker, spy)

	time.Sleep(100 * time.Millisecond)
	cancel()
	spy.mu.Lock()
	defer spy.mu.Unlock()
	if spy.forceFinished != 0 || spy.loggedOut != 0 {
		t.Fatalf("monitor acted on a non-conflict signal: finish=%d logout=%d",
			spy.forceFinished, spy.loggedOut)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	checker := &scriptedChecker{results: []checkResult{{st: session.Status{Valid: true}}}}
	spy := newMonitorSpy(true)
	cancel := runMonitor(t, checker, spy)

	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)
	checker.mu.Lock()
	after := checker.calls
	checker.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	checker.mu.Lock()
	defer checker.mu.Unlock()
	if checker.calls > after+1 {
		t.Fatalf("monitor kept polling after cancel: %d -> %d", after, checker.calls)
	}
}
