package quiz

import "strings"

// Verdict is one slot of a true-false-set answer.
type Verdict string

const (
	VerdictUnset Verdict = "N"
	VerdictTrue  Verdict = "T"
	VerdictFalse Verdict = "F"
)

// Slot labels the four sub-statements of a true-false-set question.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
	SlotC Slot = "C"
	SlotD Slot = "D"
)

func (s Slot) index() (int, bool) {
	switch s {
	case SlotA:
		return 0, true
	case SlotB:
		return 1, true
	case SlotC:
		return 2, true
	case SlotD:
		return 3, true
	}
	return 0, false
}

// ParseVerdict accepts the wire tokens for a single slot.
func ParseVerdict(s string) (Verdict, bool) {
	switch Verdict(s) {
	case VerdictTrue, VerdictFalse, VerdictUnset:
		return Verdict(s), true
	}
	return VerdictUnset, false
}

// TrueFalseAnswer is the structured form of the 4-slot encoding. The dash-
// joined string ("T-F-N-N") exists only at the serialization boundary.
type TrueFalseAnswer [4]Verdict

// ParseTrueFalse decodes a wire encoding, treating missing or unknown slots
// as unset. The empty string decodes to all-unset.
func ParseTrueFalse(s string) TrueFalseAnswer {
	tf := TrueFalseAnswer{VerdictUnset, VerdictUnset, VerdictUnset, VerdictUnset}
	if s == "" {
		return tf
	}
	parts := strings.Split(s, "-")
	for i := 0; i < len(tf) && i < len(parts); i++ {
		if v, ok := ParseVerdict(parts[i]); ok {
			tf[i] = v
		}
	}
	return tf
}

// Encode renders the wire encoding, e.g. "N-T-N-F".
func (tf TrueFalseAnswer) Encode() string {
	parts := make([]string, len(tf))
	for i, v := range tf {
		parts[i] = string(v)
	}
	return strings.Join(parts, "-")
}

// WithSlot returns a copy with exactly one slot rewritten; the other three
// slots are preserved verbatim.
func (tf TrueFalseAnswer) WithSlot(slot Slot, v Verdict) TrueFalseAnswer {
	if i, ok := slot.index(); ok {
		tf[i] = v
	}
	return tf
}
