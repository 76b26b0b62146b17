package quiz_test

import (
	"testing"

	"github.com/phuclab/mathlms/internal/quiz"
)

func TestParseTrueFalse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "N-N-N-N"},
		{"T-F-T-F", "T-F-T-F"},
		{"T-F", "T-F-N-N"},              // missing slots stay unset
		{"T-X-F-T", "T-N-F-T"},          // unknown token stays unset
		{"T-F-T-F-T", "T-F-T-F"},        // extra slots ignored
		{"garbage", "N-N-N-N"},          // no valid token at all
	}
	for _, c := range cases {
		if got := quiz.ParseTrueFalse(c.in).Encode(); got != c.want {
			t.Errorf("ParseTrueFalse(%q).Encode() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWithSlotRewritesOnlyOne(t *testing.T) {
	tf := quiz.ParseTrueFalse("T-F-N-N")
	got := tf.WithSlot(quiz.SlotC, quiz.VerdictTrue).Encode()
	if got != "T-F-T-N" {
		t.Fatalf("got %q, want T-F-T-N", got)
	}
	// Receiver untouched.
	if tf.Encode() != "T-F-N-N" {
		t.Fatalf("receiver mutated: %q", tf.Encode())
	}
}

func TestParseVerdict(t *testing.T) {
	for _, valid := range []string{"T", "F", "N"} {
		if _, ok := quiz.ParseVerdict(valid); !ok {
			t.Errorf("ParseVerdict(%q) rejected", valid)
		}
	}
	for _, invalid := range []string{"", "t", "true", "X"} {
		if _, ok := quiz.ParseVerdict(invalid); ok {
			t.Errorf("ParseVerdict(%q) accepted", invalid)
		}
	}
}
