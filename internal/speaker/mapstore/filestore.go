// Package mapstore persists speaker mappings as a single versioned JSON file.
//
// The file is loaded once when the store opens and rewritten in full after
// every mutation via an atomic replace (temp file + rename), so a crashed
// write never leaves a half-written store behind. A missing file starts the
// store empty; a corrupt file is logged and likewise starts the store empty —
// accepted data loss, never a fatal startup failure.
package mapstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/scrivenerhq/scrivener/internal/observe"
	"github.com/scrivenerhq/scrivener/internal/speaker"
)

// CurrentVersion is the persisted store format version written by this build.
const CurrentVersion = 1

// persistedStore is the on-disk record shape.
type persistedStore struct {
	Version     int                               `json:"version"`
	LastUpdated time.Time                         `json:"last_updated"`
	Mappings    map[string]speaker.SpeakerMapping `json:"mappings"`
}

// Compile-time interface check.
var _ speaker.MappingStore = (*FileStore)(nil)

// FileStore is a [speaker.MappingStore] backed by one JSON file. The mutex
// makes each mutation's read-modify-write-persist a single critical section;
// higher-level call ordering is still the owner's responsibility.
type FileStore struct {
	mu       sync.Mutex
	path     string
	mappings map[string]speaker.SpeakerMapping
	now      func() time.Time
	metrics  *observe.Metrics
}

// Option is a functional option for configuring a [FileStore].
type Option func(*FileStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		s.now = now
	}
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *FileStore) {
		s.metrics = m
	}
}

// Open loads the store file at path, creating an empty store when the file
// does not exist. A corrupt or unparseable file is logged and treated as
// empty rather than failing. Unknown format versions are logged as warnings
// and loaded best-effort: every mapping entry that decodes is kept.
func Open(path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		mappings: make(map[string]speaker.SpeakerMapping),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mapstore: read %q: %w", path, err)
	}

	var rec persistedStore
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Error("mapstore: store file is corrupt, starting empty",
			"path", path,
			"err", err,
		)
		s.metrics.RecordRecovery(context.Background())
		return s, nil
	}

	switch {
	case rec.Version == CurrentVersion:
	case rec.Version == 0:
		// Pre-versioning file; stamp the current version on next write.
		slog.Info("mapstore: migrating unversioned store file", "path", path)
	default:
		slog.Warn("mapstore: unknown store version, loading best-effort",
			"path", path,
			"version", rec.Version,
			"supported", CurrentVersion,
		)
	}

	if rec.Mappings != nil {
		s.mappings = rec.Mappings
	}
	return s, nil
}

// Len returns the number of stored mappings.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mappings)
}

// Add implements [speaker.MappingStore.Add].
func (s *FileStore) Add(rawLabel string, identity speaker.ResolvedIdentity, prov speaker.Provenance, sourceContext map[string]string) error {
	if rawLabel == "" {
		return fmt.Errorf("%w: empty raw label", speaker.ErrValidation)
	}
	if identity.DisplayName == "" {
		return fmt.Errorf("%w: identity for %q has no display name", speaker.ErrValidation, rawLabel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	m, exists := s.mappings[rawLabel]
	if exists {
		m.Identity = identity
		m.UseCount++
		m.LastUsedAt = now
		m.Provenance = prov
		if sourceContext != nil {
			m.SourceContext = sourceContext
		}
	} else {
		m = speaker.SpeakerMapping{
			Identity:      identity,
			CreatedAt:     now,
			LastUsedAt:    now,
			UseCount:      1,
			Provenance:    prov,
			SourceContext: sourceContext,
		}
	}
	s.mappings[rawLabel] = m

	return s.persistLocked()
}

// Get implements [speaker.MappingStore.Get]. Unlike Touch it does not mutate
// usage statistics.
func (s *FileStore) Get(rawLabel string) (speaker.SpeakerMapping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mappings[rawLabel]
	return snapshot(m), ok
}

// SuggestionsFor implements [speaker.MappingStore.SuggestionsFor].
func (s *FileStore) SuggestionsFor(labels []string) map[string]speaker.SpeakerMapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]speaker.SpeakerMapping)
	for _, l := range labels {
		if m, ok := s.mappings[l]; ok {
			out[l] = snapshot(m)
		}
	}
	return out
}

// Touch implements [speaker.MappingStore.Touch]. Absent keys are a no-op and
// never create an entry.
func (s *FileStore) Touch(rawLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mappings[rawLabel]
	if !ok {
		return nil
	}
	m.UseCount++
	m.LastUsedAt = s.now().UTC()
	s.mappings[rawLabel] = m

	return s.persistLocked()
}

// Delete implements [speaker.MappingStore.Delete].
func (s *FileStore) Delete(rawLabel string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mappings[rawLabel]; !ok {
		return false, nil
	}
	delete(s.mappings, rawLabel)

	return true, s.persistLocked()
}

// ExportAll implements [speaker.MappingStore.ExportAll].
func (s *FileStore) ExportAll() map[string]speaker.SpeakerMapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]speaker.SpeakerMapping, len(s.mappings))
	for k, v := range s.mappings {
		out[k] = snapshot(v)
	}
	return out
}

// ImportAll implements [speaker.MappingStore.ImportAll]. With merge true,
// existing keys are never overwritten by imported ones; with merge false the
// store contents are replaced wholesale.
func (s *FileStore) ImportAll(mappings map[string]speaker.SpeakerMapping, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !merge {
		s.mappings = make(map[string]speaker.SpeakerMapping, len(mappings))
	}
	for k, v := range mappings {
		if merge {
			if _, exists := s.mappings[k]; exists {
				continue
			}
		}
		s.mappings[k] = v
	}

	return s.persistLocked()
}

// snapshot returns m with its SourceContext map copied, so callers mutating
// a returned mapping never edit the store's internal state.
func snapshot(m speaker.SpeakerMapping) speaker.SpeakerMapping {
	m.SourceContext = maps.Clone(m.SourceContext)
	return m
}

// persistLocked rewrites the store file atomically: the full record is
// written to a temp file in the same directory and renamed over the old one,
// so readers never observe a partial write. Callers must hold s.mu. On write
// failure the in-memory state keeps the attempted mutation so the caller can
// retry.
func (s *FileStore) persistLocked() error {
	rec := persistedStore{
		Version:     CurrentVersion,
		LastUpdated: s.now().UTC(),
		Mappings:    s.mappings,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("mapstore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".mappings-*.json")
	if err != nil {
		return fmt.Errorf("mapstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("mapstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("mapstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("mapstore: replace %q: %w", s.path, err)
	}
	return nil
}
