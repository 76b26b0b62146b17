package session

import (
	"context"
	"time"
)

// DefaultPollInterval is the heartbeat cadence against the system of record.
const DefaultPollInterval = 5 * time.Second

// ReasonConflict is the only invalidity reason the monitor acts on: the same
// account logged in from another device.
const ReasonConflict = "session_conflict"

// Status is the validity verdict for one heartbeat.
type Status struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Checker asks the external collaborator whether a session is still valid.
type Checker interface {
	CheckSession(ctx context.Context, sheetToken string) (Status, error)
}

// Monitor polls session validity on a fixed cadence and reacts to conflicting
// logins. On a conflict it first tries ForceFinish; if that reports no active
// quiz to end, it falls back to Logout. Every other invalid reason, and every
// check failure or malformed response, is deliberately a no-op: an ambiguous
// signal never forces a spurious logout.
type Monitor struct {
	Checker    Checker
	SheetToken string
	Interval   time.Duration

	// ForceFinish ends an active incomplete quiz with the session-conflict
	// reason, returning false when there is none.
	ForceFinish func(ctx context.Context) bool
	// Logout revokes the session.
	Logout func()
}

// Run polls until ctx is canceled. Cancellation stops the ticker immediately;
// a poll already in flight is allowed to complete and its result discarded.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st, err := m.Checker.CheckSession(ctx, m.SheetToken)
			if err != nil || st.Valid || st.Reason != ReasonConflict {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			if !m.ForceFinish(ctx) {
				m.Logout()
			}
		}
	}
}
