// Package speaker implements speaker identity resolution for meeting
// transcripts: turning raw diarization labels ("SPK-72zlg25bsiw", "Speaker A")
// into stable human identities, deduplicating aliases of the same person, and
// rewriting transcripts with the resolved names.
//
// The package is organised around a few cooperating pieces:
//
//   - pure string similarity primitives ([Normalize], [EditDistance],
//     [Similarity]) backed by matchr's Levenshtein implementation,
//   - [DetectDuplicates], a ranked pairwise rule list producing auto-merges
//     and weaker suggestions over the labels of one transcript,
//   - [SuggestOperator], the single-speaker operator-profile heuristic,
//   - [ApplyMappings], the pure, idempotent transcript rewrite, and
//   - [ReviewSession], the detect → stage → commit confirmation flow on top
//     of a [MappingStore].
package speaker

import "time"

// ResolvedIdentity is the human-meaningful identity a raw speaker label maps
// to. Link is an opaque reference consumed by the export layer (typically a
// wiki-style backlink target); this package never interprets its syntax.
type ResolvedIdentity struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Confidence grades how certain a resolution is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Provenance records how a mapping came to exist, retained for audit.
type Provenance string

const (
	// ProvenanceUserConfirmed marks a mapping explicitly confirmed by a user.
	ProvenanceUserConfirmed Provenance = "user_confirmed"

	// ProvenanceAutoMerged marks a mapping created by applying an
	// [AutoMerge] without confirmation.
	ProvenanceAutoMerged Provenance = "auto_merged"

	// ProvenanceProfileInferred marks a mapping inferred from the operator
	// profile by the single-speaker heuristic.
	ProvenanceProfileInferred Provenance = "profile_inferred"
)

// IsValid reports whether p is a recognised provenance value.
func (p Provenance) IsValid() bool {
	switch p {
	case ProvenanceUserConfirmed, ProvenanceAutoMerged, ProvenanceProfileInferred:
		return true
	}
	return false
}

// SpeakerMapping is the persisted association between one raw speaker label
// (the store key, case-sensitive) and a resolved identity.
//
// Invariants maintained by the store: UseCount only increases, CreatedAt is
// immutable after creation, and LastUsedAt never precedes CreatedAt.
type SpeakerMapping struct {
	Identity   ResolvedIdentity `json:"identity"`
	CreatedAt  time.Time        `json:"created_at"`
	LastUsedAt time.Time        `json:"last_used_at"`
	UseCount   int              `json:"use_count"`
	Provenance Provenance       `json:"provenance"`

	// SourceContext is opaque caller-supplied metadata about where the
	// mapping was learned (e.g. meeting identifier). May be nil.
	SourceContext map[string]string `json:"source_context,omitempty"`
}

// AutoMerge is a duplicate-detection result safe to apply without
// confirmation: the From label is a near-certain textual variant of To.
// From never equals To, and a label appears as From at most once per
// detection pass.
type AutoMerge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Suggestion is a duplicate-detection result that requires external
// confirmation before being applied; last-name/initial or fuzzy similarity
// alone is not reliable enough to collapse two labels unilaterally.
type Suggestion struct {
	Speakers [2]string `json:"speakers"`
	Reason   string    `json:"reason"`
}

// DetectionResult is the output of one [DetectDuplicates] pass. Results are
// ephemeral: they are recomputed per pass and never persisted.
type DetectionResult struct {
	AutoMerges  []AutoMerge  `json:"auto_merges"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Profile is the operator's own identity, used only by [SuggestOperator].
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
