package quiz

import (
	"context"
	"log"
)

// ReportHidden handles a page-visibility transition to hidden during a quiz.
// It acts only when an attempt is active and incomplete and the session role
// is not teacher: the tab-switch counter is incremented, the violation is
// reported with the attempt's topic/level and the current count, and the quiz
// is force-finished. A quiz that was already completed by another trigger is
// left alone: Finish checks the completion guard first, so a race with the
// session monitor cannot double-finish.
func (c *Controller) ReportHidden(ctx context.Context) error {
	c.mu.Lock()
	a := c.attempt
	if a == nil || a.Complete || c.role == "teacher" {
		c.mu.Unlock()
		return nil
	}
	a.TabSwitches++
	v := Violation{
		Type:      "tab_switch",
		Timestamp: c.now().UnixMilli(),
		Count:     a.TabSwitches,
	}
	topic, level, email := a.Topic, a.Level, c.email
	reporter := c.report
	c.mu.Unlock()

	if reporter != nil {
		// Fire-and-forget: the report must not delay or block the forced
		// finish, and its failure is not an error.
		go func() {
			if err := reporter.ReportViolation(context.WithoutCancel(ctx), email, v, topic, level); err != nil {
				log.Printf("[ERROR] report violation for %s: %v", email, err)
			}
		}()
	}
	return c.Finish(ctx, ReasonTabSwitch)
}
