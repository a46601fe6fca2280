package speaker_test

import (
	"testing"

	"github.com/scrivenerhq/scrivener/internal/speaker"
)

func TestSuggestOperator(t *testing.T) {
	t.Parallel()

	profile := speaker.Profile{Name: "Alex Lee", Email: "alex@example.com"}

	sug, ok := speaker.SuggestOperator([]string{"SPK-abc123"}, profile)
	if !ok {
		t.Fatal("expected a suggestion for a single-speaker transcript")
	}
	if sug.RawLabel != "SPK-abc123" {
		t.Errorf("RawLabel=%q", sug.RawLabel)
	}
	if sug.Identity.DisplayName != "Alex Lee" || sug.Identity.Email != "alex@example.com" {
		t.Errorf("Identity=%+v", sug.Identity)
	}
	if sug.Confidence != speaker.ConfidenceHigh {
		t.Errorf("Confidence=%q, want high", sug.Confidence)
	}
}

func TestSuggestOperator_Cardinality(t *testing.T) {
	t.Parallel()

	profile := speaker.Profile{Name: "Alex Lee"}

	cases := []struct {
		name   string
		labels []string
	}{
		{"no speakers", nil},
		{"two speakers", []string{"Alex Lee", "Speaker B"}},
		{"three speakers", []string{"A", "B", "C"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, ok := speaker.SuggestOperator(tc.labels, profile); ok {
				t.Fatalf("suggestion fired for %d speakers, must only fire for exactly one", len(tc.labels))
			}
		})
	}
}

func TestSuggestOperator_NoProfileName(t *testing.T) {
	t.Parallel()

	if _, ok := speaker.SuggestOperator([]string{"Speaker A"}, speaker.Profile{Email: "x@example.com"}); ok {
		t.Fatal("suggestion fired without a profile name")
	}
}
