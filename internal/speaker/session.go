package speaker

import (
	"context"
	"fmt"
	"time"

	"github.com/scrivenerhq/scrivener/internal/observe"
	"github.com/scrivenerhq/scrivener/internal/transcript"
)

// SessionOption is a functional option for configuring a [ReviewSession].
type SessionOption func(*ReviewSession)

// WithMetrics overrides the metrics instance used by the session. Defaults
// to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) SessionOption {
	return func(s *ReviewSession) {
		s.metrics = m
	}
}

// stagedMapping is a session-local, not-yet-persisted mapping.
type stagedMapping struct {
	identity ResolvedIdentity
	prov     Provenance
}

// ReviewSession models the propose → confirm → commit flow for one
// transcript's speaker mappings as three explicit stages: [ReviewSession.Detect]
// computes proposals, [ReviewSession.Stage] records session-local overrides,
// and [ReviewSession.Commit] persists confirmed mappings to the store.
// Until Commit, the store is never mutated; staged entries win over persisted
// ones when both exist for a label.
//
// A ReviewSession is owned by a single caller and is not safe for concurrent
// use.
type ReviewSession struct {
	store   MappingStore
	staged  map[string]stagedMapping
	metrics *observe.Metrics
}

// NewReviewSession returns a session over the given store with no staged
// mappings.
func NewReviewSession(store MappingStore, opts ...SessionOption) *ReviewSession {
	s := &ReviewSession{
		store:  store,
		staged: make(map[string]stagedMapping),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Detect runs one duplicate-detection pass over labels and records the pass
// in metrics. Results are ephemeral; a later pass over a different label set
// supersedes them.
func (s *ReviewSession) Detect(ctx context.Context, labels []string) DetectionResult {
	start := time.Now()
	res := DetectDuplicates(labels)
	s.metrics.RecordDetection(ctx, time.Since(start).Seconds(),
		len(res.AutoMerges), len(res.Suggestions))
	return res
}

// Stage records a session-local mapping override for rawLabel. Staged
// entries shadow persisted mappings until Commit. Returns [ErrValidation]
// for an empty label or identity name.
func (s *ReviewSession) Stage(rawLabel string, identity ResolvedIdentity, prov Provenance) error {
	if rawLabel == "" {
		return fmt.Errorf("%w: empty raw label", ErrValidation)
	}
	if identity.DisplayName == "" {
		return fmt.Errorf("%w: identity for %q has no display name", ErrValidation, rawLabel)
	}
	s.staged[rawLabel] = stagedMapping{identity: identity, prov: prov}
	return nil
}

// StageAutoMerges stages every auto-merge in res: each From label is mapped
// to the identity its To label resolves to (staged first, then the store),
// falling back to an identity named after the To label itself when neither
// knows it yet.
func (s *ReviewSession) StageAutoMerges(res DetectionResult) {
	for _, am := range res.AutoMerges {
		s.staged[am.From] = stagedMapping{
			identity: s.identityFor(am.To),
			prov:     ProvenanceAutoMerged,
		}
	}
}

// StageOperator stages an accepted [OperatorSuggestion].
func (s *ReviewSession) StageOperator(sug OperatorSuggestion) {
	s.staged[sug.RawLabel] = stagedMapping{
		identity: sug.Identity,
		prov:     ProvenanceProfileInferred,
	}
}

// Unstage drops a staged entry. A no-op for labels never staged.
func (s *ReviewSession) Unstage(rawLabel string) {
	delete(s.staged, rawLabel)
}

// StagedLabels returns the labels with a staged override, in no particular
// order.
func (s *ReviewSession) StagedLabels() []string {
	labels := make([]string, 0, len(s.staged))
	for l := range s.staged {
		labels = append(labels, l)
	}
	return labels
}

// Effective returns the mapping table for the given labels: persisted
// mappings overlaid with staged session-local ones, staged winning on
// collision.
func (s *ReviewSession) Effective(labels []string) map[string]ResolvedIdentity {
	eff := make(map[string]ResolvedIdentity, len(labels))
	for raw, m := range s.store.SuggestionsFor(labels) {
		eff[raw] = m.Identity
	}
	for _, l := range labels {
		if st, ok := s.staged[l]; ok {
			eff[l] = st.identity
		}
	}
	return eff
}

// Apply rewrites t using the session's effective mapping table. The store is
// not mutated and usage statistics are untouched; call Commit once the
// caller confirms the result.
func (s *ReviewSession) Apply(ctx context.Context, t transcript.Transcript, useLinkSyntax bool) transcript.Transcript {
	labels := ExtractDistinctLabels(&t)
	eff := s.Effective(labels)
	rewritten := 0
	for _, u := range t.Utterances {
		if _, ok := eff[u.RawLabel()]; ok {
			rewritten++
		}
	}
	s.metrics.RecordResolved(ctx, rewritten)
	return ApplyMappings(t, eff, useLinkSyntax)
}

// Commit persists every staged mapping to the store and bumps usage on the
// persisted mappings that were exercised by labels. Staged entries are
// cleared only on full success; on error they remain staged so the caller
// can retry without re-entering anything.
func (s *ReviewSession) Commit(ctx context.Context, labels []string, sourceContext map[string]string) error {
	for raw, st := range s.staged {
		if err := s.store.Add(raw, st.identity, st.prov, sourceContext); err != nil {
			return fmt.Errorf("speaker: commit %q: %w", raw, err)
		}
		s.metrics.RecordPersisted(ctx, string(st.prov), 1)
	}
	// Usage bump for pre-existing mappings that resolved labels this
	// session but were not re-staged.
	for _, l := range labels {
		if _, wasStaged := s.staged[l]; wasStaged {
			continue
		}
		if _, known := s.store.Get(l); !known {
			continue
		}
		if err := s.store.Touch(l); err != nil {
			return fmt.Errorf("speaker: commit touch %q: %w", l, err)
		}
	}
	s.staged = make(map[string]stagedMapping)
	return nil
}

// identityFor resolves what identity a label currently maps to: staged
// overrides first, then the persisted store, then the label taken at face
// value as a display name.
func (s *ReviewSession) identityFor(label string) ResolvedIdentity {
	if st, ok := s.staged[label]; ok {
		return st.identity
	}
	if m, ok := s.store.Get(label); ok {
		return m.Identity
	}
	return ResolvedIdentity{DisplayName: label, Link: label}
}
