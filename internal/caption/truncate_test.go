package caption

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateSynopsisShortInputUntouched(t *testing.T) {
	s := "Already short."
	if got := TruncateSynopsis(s, 100); got != s {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestTruncateSynopsisPrefersSentenceBoundary(t *testing.T) {
	s := "The first sentence ends here. The second one keeps going and going well past the limit."
	got := TruncateSynopsis(s, 40)
	if got != "The first sentence ends here." {
		t.Errorf("got %q, want cut at the sentence boundary", got)
	}
}

func TestTruncateSynopsisFallsBackToWordBoundary(t *testing.T) {
	s := "no sentence boundary anywhere in this long stretch of words at all"
	got := TruncateSynopsis(s, 30)
	if !strings.HasSuffix(got, ellipsis) {
		t.Errorf("got %q, want ellipsis after a word cut", got)
	}
	if strings.Contains(strings.TrimSuffix(got, ellipsis), "stretch of words") {
		t.Errorf("got %q, cut past the limit", got)
	}
}

func TestTruncateSynopsisHardCut(t *testing.T) {
	s := strings.Repeat("x", 100)
	got := TruncateSynopsis(s, 20)
	if !strings.HasSuffix(got, ellipsis) {
		t.Errorf("got %q, want ellipsis after a hard cut", got)
	}
}

func TestTruncateSynopsisNeverExceedsMax(t *testing.T) {
	inputs := []string{
		"The first sentence ends here. Then more text follows for a while longer.",
		"no boundaries here just words words words words words words words",
		strings.Repeat("y", 500),
		"短い文です。そしてもっと長い文が続いていきます、ずっとずっと続きます。",
	}
	for _, s := range inputs {
		for _, max := range []int{5, 10, 25, 60, 200} {
			got := TruncateSynopsis(s, max)
			if n := utf8.RuneCountInString(got); n > max {
				t.Errorf("TruncateSynopsis(%q, %d) returned %d runes", s, max, n)
			}
		}
	}
}
