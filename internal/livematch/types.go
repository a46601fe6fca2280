// Package livematch assigns names to diarized speaker slots of a freshly
// recorded meeting by combining several imperfect signal sources in a strict
// priority order: capture-layer timeline evidence first, then
// provider-identified names, then positional heuristics over the meeting's
// participant list.
//
// Name matching here is deliberately strict — exact equality after case and
// whitespace normalization. Fuzzy matching belongs to the duplicate detector,
// which collapses aliases of the same already-chosen name; choosing between
// different people on a fuzzy match would conflate them.
package livematch

import "github.com/scrivenerhq/scrivener/internal/speaker"

// Participant is one attendee from the calendar invite, authoritative for
// names during live matching. Order matters: heuristic fallbacks assign in
// listed order.
type Participant struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	IsHost bool   `json:"is_host,omitempty"`
}

// Slot is one diarized speaker slot with its talk-time statistics.
type Slot struct {
	// Label is the raw diarization label for the slot.
	Label string `json:"label"`

	// UtteranceCount is how many utterances the slot produced.
	UtteranceCount int `json:"utterance_count"`

	// SpokenSeconds is the slot's total speaking time, when timing exists.
	SpokenSeconds float64 `json:"spoken_seconds,omitempty"`
}

// Turn is one who-was-speaking-when interval from the capture layer,
// correlated with which participants were present at the time.
type Turn struct {
	SlotLabel    string   `json:"slot_label"`
	StartSeconds float64  `json:"start_seconds"`
	EndSeconds   float64  `json:"end_seconds"`
	Present      []string `json:"present"`
}

// Source names the signal that resolved a slot.
type Source string

const (
	// SourceTimeline marks a slot resolved from capture-layer timeline
	// evidence, the highest-confidence signal.
	SourceTimeline Source = "timeline"

	// SourceProvider marks a slot resolved from a real (non-placeholder)
	// name returned by the transcription provider.
	SourceProvider Source = "provider"

	// SourceCountMatch marks a 1:1 positional assignment made because the
	// remaining slot and participant counts were equal.
	SourceCountMatch Source = "count-match"

	// SourceHost marks the first unresolved slot assigned to the flagged
	// meeting host (or the first listed participant without a host flag).
	SourceHost Source = "host"

	// SourceTalkative marks the most-talkative remaining slot assigned to
	// the next unresolved participant.
	SourceTalkative Source = "talkative"

	// SourceOrder marks a leftover slot assigned in listed order.
	SourceOrder Source = "order"
)

// Assignment is the resolution of one slot.
type Assignment struct {
	Identity   speaker.ResolvedIdentity `json:"identity"`
	Confidence speaker.Confidence       `json:"confidence"`
	Source     Source                   `json:"source"`

	// EmailInferred reports that the email was obtained from a directory
	// lookup rather than the meeting invite, which caps Confidence at
	// Medium.
	EmailInferred bool `json:"email_inferred,omitempty"`
}
