package transcript_test

import (
	"strings"
	"testing"
	"time"

	"github.com/scrivenerhq/scrivener/internal/transcript"
)

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	tr := transcript.Transcript{
		Title: "Weekly Sync",
		Utterances: []transcript.Utterance{
			{Speaker: "Dana Sato", Link: "Dana Sato", Text: "Good morning.", StartSeconds: 61, EndSeconds: 64, HasTiming: true},
			{Speaker: "Miguel Ortiz", Link: "people/miguel-ortiz", Text: "Morning!"},
			{Speaker: "SPK-x", Text: "unresolved speaker"},
			{Text: "no speaker at all"},
		},
	}
	meta := transcript.ExportMeta{
		Attendees: []string{"Dana Sato", "Miguel Ortiz"},
		Source:    "weekly.vtt",
		Generated: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	got := transcript.RenderMarkdown(meta, tr)

	for _, want := range []string{
		"# Weekly Sync\n",
		"- Attendees: Dana Sato, Miguel Ortiz\n",
		"- Source: `weekly.vtt`\n",
		"[01:01] **[[Dana Sato]]**: Good morning.\n",
		"**[[people/miguel-ortiz|Miguel Ortiz]]**: Morning!\n",
		"**SPK-x**: unresolved speaker\n",
		"no speaker at all\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderMarkdown_TitleFallback(t *testing.T) {
	t.Parallel()

	got := transcript.RenderMarkdown(transcript.ExportMeta{}, transcript.Transcript{})
	if !strings.HasPrefix(got, "# Meeting Transcript\n") {
		t.Fatalf("output=%q, want the default title", got)
	}
}

func TestRenderMarkdown_HourOffsets(t *testing.T) {
	t.Parallel()

	tr := transcript.Transcript{Utterances: []transcript.Utterance{
		{Speaker: "A", Text: "late", StartSeconds: 3723, EndSeconds: 3725, HasTiming: true},
	}}
	got := transcript.RenderMarkdown(transcript.ExportMeta{}, tr)
	if !strings.Contains(got, "[01:02:03]") {
		t.Fatalf("output=%q, want an hh:mm:ss offset", got)
	}
}

func TestDurationAndUtteranceCount(t *testing.T) {
	t.Parallel()

	tr := transcript.Transcript{Utterances: []transcript.Utterance{
		{Speaker: "A", Text: "x", StartSeconds: 0, EndSeconds: 2, HasTiming: true},
		{Speaker: "A", Text: "y", StartSeconds: 5, EndSeconds: 8, HasTiming: true},
		{Speaker: "A", Text: "z"},
		{Speaker: "B", Text: "w", StartSeconds: 2, EndSeconds: 5, HasTiming: true},
	}}

	if got := tr.Duration("A"); got != 5 {
		t.Errorf("Duration(A)=%v, want 5", got)
	}
	if got := tr.UtteranceCount("A"); got != 3 {
		t.Errorf("UtteranceCount(A)=%d, want 3", got)
	}
	if got := tr.Duration("C"); got != 0 {
		t.Errorf("Duration(C)=%v, want 0", got)
	}
}
