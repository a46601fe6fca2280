// Package transcript defines the transcript data model shared by the speaker
// resolution pipeline and provides importers for foreign transcript formats.
//
// A [Transcript] is an ordered sequence of [Utterance] values. Utterances are
// immutable as received: downstream stages that resolve speaker identities
// produce new utterances rather than editing in place, so the raw
// provider-assigned speaker label is always recoverable for audit.
//
// Supported input formats:
//   - WebVTT caption files with voice spans ([ParseVTT], [ParseVTTFromReader])
//   - Provider JSON exports ([ParseJSON], [ParseJSONFromReader])
package transcript

// Utterance is a single speaker turn in a conversation.
type Utterance struct {
	// Speaker is the display label for this turn. For an unresolved
	// utterance this is the raw diarization label (e.g. "SPK-72zlg25bsiw",
	// "Speaker A"); after resolution it carries the human-meaningful name.
	Speaker string `json:"speaker"`

	// RawSpeaker preserves the original diarization label once Speaker has
	// been rewritten to a resolved name. Empty while the utterance is still
	// unresolved. Resolution always keys on the raw label, never on an
	// already-resolved display name.
	RawSpeaker string `json:"raw_speaker,omitempty"`

	// Text is the spoken content of the turn.
	Text string `json:"text"`

	// StartSeconds is the turn's start offset from the beginning of the
	// recording. Zero when the source format carries no timing data; use
	// HasTiming to distinguish a genuine zero offset.
	StartSeconds float64 `json:"start_seconds,omitempty"`

	// EndSeconds is the turn's end offset. Zero when unknown.
	EndSeconds float64 `json:"end_seconds,omitempty"`

	// HasTiming reports whether StartSeconds/EndSeconds carry real values.
	HasTiming bool `json:"has_timing,omitempty"`

	// Email is the resolved speaker's email address, when known.
	Email string `json:"email,omitempty"`

	// Link is an opaque reference attached by resolution for the export
	// layer (e.g. a wiki-style backlink target). Never interpreted here.
	Link string `json:"link,omitempty"`
}

// RawLabel returns the label resolution should key on: the preserved raw
// speaker label when the utterance has already been resolved, otherwise the
// current Speaker value.
func (u Utterance) RawLabel() string {
	if u.RawSpeaker != "" {
		return u.RawSpeaker
	}
	return u.Speaker
}

// Transcript is an ordered sequence of utterances from one meeting.
type Transcript struct {
	// Title is an optional human-readable name for the meeting.
	Title string `json:"title,omitempty"`

	// Utterances are the speaker turns in recording order.
	Utterances []Utterance `json:"utterances"`
}

// Duration returns the total spoken time in seconds attributed to the given
// raw speaker label, summed over utterances that carry timing data.
func (t Transcript) Duration(rawLabel string) float64 {
	var total float64
	for _, u := range t.Utterances {
		if u.RawLabel() != rawLabel || !u.HasTiming {
			continue
		}
		if d := u.EndSeconds - u.StartSeconds; d > 0 {
			total += d
		}
	}
	return total
}

// UtteranceCount returns how many utterances carry the given raw label.
func (t Transcript) UtteranceCount(rawLabel string) int {
	n := 0
	for _, u := range t.Utterances {
		if u.RawLabel() == rawLabel {
			n++
		}
	}
	return n
}
