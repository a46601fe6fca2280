package speaker_test

import (
	"reflect"
	"testing"

	"github.com/scrivenerhq/scrivener/internal/speaker"
	"github.com/scrivenerhq/scrivener/internal/transcript"
)

func TestIsNonSpeakerLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		want  bool
	}{
		{"Summary", true},
		{"ACTION ITEMS:", true},
		{"next   steps", true},
		{"Agenda", true},
		{"", true},
		{"???", true},
		{"Jane Doe", false},
		{"Speaker A", false},
		{"SPK-72zlg25bsiw", false},
		{"Summarizer Bot", false},
	}
	for _, tc := range cases {
		if got := speaker.IsNonSpeakerLabel(tc.label); got != tc.want {
			t.Errorf("IsNonSpeakerLabel(%q)=%v, want %v", tc.label, got, tc.want)
		}
	}
}

func TestExtractDistinctLabels(t *testing.T) {
	t.Parallel()

	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		{Speaker: "summary", Text: "weekly sync"},
		{Speaker: "Jane Doe", Text: "hi"},
		{Speaker: "Tim", Text: "hello"},
		{Speaker: "Jane Doe", Text: "again"},
		{Speaker: "Action Items", Text: "ship it"},
	}}

	got := speaker.ExtractDistinctLabels(tr)
	want := []string{"Jane Doe", "Tim"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractDistinctLabels=%v, want %v", got, want)
	}
}

func TestExtractDistinctLabels_ResolvedTranscript(t *testing.T) {
	t.Parallel()

	// A resolved utterance keys on its preserved raw label, so re-extraction
	// yields the original label set.
	tr := &transcript.Transcript{Utterances: []transcript.Utterance{
		{Speaker: "Jane Doe", RawSpeaker: "Speaker A", Text: "hi"},
		{Speaker: "Jane Doe", RawSpeaker: "Speaker A", Text: "more"},
	}}

	got := speaker.ExtractDistinctLabels(tr)
	want := []string{"Speaker A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractDistinctLabels=%v, want %v", got, want)
	}
}

func TestExtractDistinctLabels_Nil(t *testing.T) {
	t.Parallel()

	if got := speaker.ExtractDistinctLabels(nil); got != nil {
		t.Fatalf("ExtractDistinctLabels(nil)=%v, want nil", got)
	}
}
