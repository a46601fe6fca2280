package speaker

import "errors"

// ErrValidation is returned by store mutations rejecting malformed input
// (an empty raw label, or an identity without a display name). Validation
// failures are rejected synchronously and never partially applied.
var ErrValidation = errors.New("speaker: invalid mapping")

// MappingStore is the durable keyed store of raw label → resolved identity.
//
// Lookups on absent keys are not errors: Get reports a boolean, Touch is a
// no-op, Delete reports whether anything was removed. Mutations that fail to
// persist return the write error while leaving the in-memory state (including
// the attempted mapping) intact, so callers can surface "mapping not saved"
// and retry without re-entering data.
//
// A store instance expects a single logical owner per process; callers that
// share one must serialise their own calls.
type MappingStore interface {
	// Add creates or updates the mapping for rawLabel. On update the
	// original CreatedAt is preserved, UseCount is bumped, LastUsedAt is
	// refreshed, and Provenance is set from the call site.
	// Returns [ErrValidation] for an empty rawLabel or identity name.
	Add(rawLabel string, identity ResolvedIdentity, prov Provenance, sourceContext map[string]string) error

	// Get returns the stored mapping for rawLabel without touching its
	// usage statistics.
	Get(rawLabel string) (SpeakerMapping, bool)

	// SuggestionsFor returns the subset of labels that already have a
	// stored mapping, as a lookup table. Used to pre-populate confirmation
	// UI; never applied silently.
	SuggestionsFor(labels []string) map[string]SpeakerMapping

	// Touch bumps rawLabel's UseCount and refreshes LastUsedAt. A no-op
	// for absent keys: it never creates an entry.
	Touch(rawLabel string) error

	// Delete removes rawLabel and reports whether a mapping was removed.
	Delete(rawLabel string) (bool, error)

	// ExportAll returns a copy of every stored mapping.
	ExportAll() map[string]SpeakerMapping

	// ImportAll bulk-loads mappings. When merge is true, keys already in
	// the store are never overwritten (additive-only); when false the
	// store contents are replaced wholesale.
	ImportAll(mappings map[string]SpeakerMapping, merge bool) error
}
