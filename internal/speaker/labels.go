package speaker

import (
	"strings"

	"github.com/scrivenerhq/scrivener/internal/transcript"
)

// nonSpeakerTerms are section headings that diarization or import sometimes
// mis-captures as speaker labels. Compared after normalization, so case and
// punctuation variants ("Action Items:", "NEXT STEPS") are caught too.
var nonSpeakerTerms = map[string]struct{}{
	"summary":         {},
	"agenda":          {},
	"action items":    {},
	"action item":     {},
	"next steps":      {},
	"next step":       {},
	"notes":           {},
	"attendees":       {},
	"minutes":         {},
	"transcript":      {},
	"recording":       {},
	"meeting notes":   {},
	"follow ups":      {},
	"followups":       {},
	"discussion":      {},
	"decisions":       {},
	"open questions":  {},
	"parking lot":     {},
	"introductions":   {},
	"closing remarks": {},
}

// IsNonSpeakerLabel reports whether label is a section-heading term rather
// than a real speaker. The check runs before duplicate detection and before
// label extraction anywhere in the pipeline.
func IsNonSpeakerLabel(label string) bool {
	n := Normalize(label)
	if n == "" {
		return true
	}
	// Collapse runs of whitespace so "next   steps" still matches.
	n = strings.Join(strings.Fields(n), " ")
	_, ok := nonSpeakerTerms[n]
	return ok
}

// ExtractDistinctLabels returns the distinct raw speaker labels of t in first
// appearance order, with non-speaker section headings filtered out. Labels
// are taken from the original raw side of each utterance, so an
// already-resolved transcript yields the same label set as the unresolved
// one.
func ExtractDistinctLabels(t *transcript.Transcript) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{}, 8)
	var labels []string
	for _, u := range t.Utterances {
		raw := u.RawLabel()
		if raw == "" {
			continue
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		if IsNonSpeakerLabel(raw) {
			continue
		}
		labels = append(labels, raw)
	}
	return labels
}
