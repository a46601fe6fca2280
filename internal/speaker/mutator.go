package speaker

import "github.com/scrivenerhq/scrivener/internal/transcript"

// ApplyMappings rewrites t's utterances using the effective mapping table and
// returns a new transcript; the input is never modified and the mapping table
// is only read. Persisting newly confirmed mappings is a separate, explicit
// step ([ReviewSession.Commit]) performed after the caller approves the
// result.
//
// Lookup keys on each utterance's original raw label (preserved in
// RawSpeaker once resolved), which makes the operation idempotent: applying
// the same table to an already-resolved transcript yields the same result.
// Utterances whose raw label has no mapping pass through unchanged.
//
// When useLinkSyntax is true the identity's Link is attached to each resolved
// utterance so the export layer can render backlinks; when false the Link is
// dropped and only the display name and email are carried.
func ApplyMappings(t transcript.Transcript, mappings map[string]ResolvedIdentity, useLinkSyntax bool) transcript.Transcript {
	out := transcript.Transcript{
		Title:      t.Title,
		Utterances: make([]transcript.Utterance, len(t.Utterances)),
	}
	for i, u := range t.Utterances {
		raw := u.RawLabel()
		id, ok := mappings[raw]
		if !ok {
			out.Utterances[i] = u
			continue
		}
		resolved := u
		resolved.Speaker = id.DisplayName
		resolved.RawSpeaker = raw
		resolved.Email = id.Email
		if useLinkSyntax {
			resolved.Link = id.Link
		} else {
			resolved.Link = ""
		}
		out.Utterances[i] = resolved
	}
	return out
}
