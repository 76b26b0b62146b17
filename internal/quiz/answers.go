package quiz

import "errors"

var (
	// ErrAttemptComplete rejects any mutation of a finished attempt.
	ErrAttemptComplete = errors.New("attempt already complete")
	// ErrIndexOutOfRange rejects answers addressed outside the question set.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrBadSlot rejects sub-answers with an unknown slot label.
	ErrBadSlot = errors.New("unknown sub-answer slot")
)

// SetAnswer replaces the answer at index unconditionally. No content
// validation happens here; validation is implicit in scoring. Not safe for
// concurrent use; the Controller serializes all attempt mutation.
func (a *Attempt) SetAnswer(index int, value string) error {
	if a.Complete {
		return ErrAttemptComplete
	}
	if index < 0 || index >= len(a.Questions) {
		return ErrIndexOutOfRange
	}
	a.Answers[index] = value
	return nil
}

// SetSubAnswer rewrites exactly one slot of a true-false-set answer, reading
// the existing encoding (all-unset when absent) and re-joining. The other
// three slots are preserved verbatim.
func (a *Attempt) SetSubAnswer(index int, slot Slot, v Verdict) error {
	if a.Complete {
		return ErrAttemptComplete
	}
	if index < 0 || index >= len(a.Questions) {
		return ErrIndexOutOfRange
	}
	if _, ok := slot.index(); !ok {
		return ErrBadSlot
	}
	tf := ParseTrueFalse(a.Answers[index])
	a.Answers[index] = tf.WithSlot(slot, v).Encode()
	return nil
}
