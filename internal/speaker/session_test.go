package speaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/scrivenerhq/scrivener/internal/observe"
	"github.com/scrivenerhq/scrivener/internal/speaker"
	"github.com/scrivenerhq/scrivener/internal/transcript"
)

// fakeStore is an in-memory [speaker.MappingStore] with injectable write
// failures.
type fakeStore struct {
	mappings map[string]speaker.SpeakerMapping
	addErr   error
	touched  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{mappings: make(map[string]speaker.SpeakerMapping)}
}

func (f *fakeStore) Add(rawLabel string, identity speaker.ResolvedIdentity, prov speaker.Provenance, sourceContext map[string]string) error {
	if f.addErr != nil {
		return f.addErr
	}
	m, exists := f.mappings[rawLabel]
	if exists {
		m.Identity = identity
		m.UseCount++
		m.Provenance = prov
	} else {
		m = speaker.SpeakerMapping{
			Identity:      identity,
			CreatedAt:     time.Now(),
			LastUsedAt:    time.Now(),
			UseCount:      1,
			Provenance:    prov,
			SourceContext: sourceContext,
		}
	}
	f.mappings[rawLabel] = m
	return nil
}

func (f *fakeStore) Get(rawLabel string) (speaker.SpeakerMapping, bool) {
	m, ok := f.mappings[rawLabel]
	return m, ok
}

func (f *fakeStore) SuggestionsFor(labels []string) map[string]speaker.SpeakerMapping {
	out := make(map[string]speaker.SpeakerMapping)
	for _, l := range labels {
		if m, ok := f.mappings[l]; ok {
			out[l] = m
		}
	}
	return out
}

func (f *fakeStore) Touch(rawLabel string) error {
	m, ok := f.mappings[rawLabel]
	if !ok {
		return nil
	}
	m.UseCount++
	f.mappings[rawLabel] = m
	f.touched = append(f.touched, rawLabel)
	return nil
}

func (f *fakeStore) Delete(rawLabel string) (bool, error) {
	if _, ok := f.mappings[rawLabel]; !ok {
		return false, nil
	}
	delete(f.mappings, rawLabel)
	return true, nil
}

func (f *fakeStore) ExportAll() map[string]speaker.SpeakerMapping {
	out := make(map[string]speaker.SpeakerMapping, len(f.mappings))
	for k, v := range f.mappings {
		out[k] = v
	}
	return out
}

func (f *fakeStore) ImportAll(mappings map[string]speaker.SpeakerMapping, merge bool) error {
	if !merge {
		f.mappings = make(map[string]speaker.SpeakerMapping, len(mappings))
	}
	for k, v := range mappings {
		if merge {
			if _, exists := f.mappings[k]; exists {
				continue
			}
		}
		f.mappings[k] = v
	}
	return nil
}

var _ speaker.MappingStore = (*fakeStore)(nil)

func TestReviewSession_StagedWinsOverStore(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	if err := store.Add("Speaker A", speaker.ResolvedIdentity{DisplayName: "Old Name"}, speaker.ProvenanceUserConfirmed, nil); err != nil {
		t.Fatal(err)
	}

	session := speaker.NewReviewSession(store)
	if err := session.Stage("Speaker A", speaker.ResolvedIdentity{DisplayName: "New Name"}, speaker.ProvenanceUserConfirmed); err != nil {
		t.Fatal(err)
	}

	eff := session.Effective([]string{"Speaker A"})
	if eff["Speaker A"].DisplayName != "New Name" {
		t.Fatalf("Effective=%+v, staged entry must shadow the persisted one", eff)
	}
	// The store itself is untouched until commit.
	if m, _ := store.Get("Speaker A"); m.Identity.DisplayName != "Old Name" {
		t.Fatalf("store mutated before commit: %+v", m)
	}
}

func TestReviewSession_StageValidates(t *testing.T) {
	t.Parallel()

	session := speaker.NewReviewSession(newFakeStore())
	if err := session.Stage("", speaker.ResolvedIdentity{DisplayName: "X"}, speaker.ProvenanceUserConfirmed); !errors.Is(err, speaker.ErrValidation) {
		t.Errorf("empty label: err=%v, want ErrValidation", err)
	}
	if err := session.Stage("Speaker A", speaker.ResolvedIdentity{}, speaker.ProvenanceUserConfirmed); !errors.Is(err, speaker.ErrValidation) {
		t.Errorf("empty identity: err=%v, want ErrValidation", err)
	}
}

func TestReviewSession_StageAutoMerges(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	if err := store.Add("Tim Peyser", speaker.ResolvedIdentity{DisplayName: "Tim Peyser", Email: "tim@example.com"}, speaker.ProvenanceUserConfirmed, nil); err != nil {
		t.Fatal(err)
	}

	session := speaker.NewReviewSession(store)
	res := session.Detect(context.Background(), []string{"Tim Peyser", "Tim"})
	session.StageAutoMerges(res)

	eff := session.Effective([]string{"Tim Peyser", "Tim"})
	// The merged From side resolves to the To side's stored identity,
	// including the email the store already knows.
	if eff["Tim"].DisplayName != "Tim Peyser" || eff["Tim"].Email != "tim@example.com" {
		t.Fatalf("Effective[Tim]=%+v", eff["Tim"])
	}
}

func TestReviewSession_CommitPersistsAndClears(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	session := speaker.NewReviewSession(store)
	if err := session.Stage("Speaker A", speaker.ResolvedIdentity{DisplayName: "Dana Sato"}, speaker.ProvenanceUserConfirmed); err != nil {
		t.Fatal(err)
	}

	ctxMeta := map[string]string{"transcript": "weekly.vtt"}
	if err := session.Commit(context.Background(), []string{"Speaker A"}, ctxMeta); err != nil {
		t.Fatal(err)
	}

	m, ok := store.Get("Speaker A")
	if !ok || m.Identity.DisplayName != "Dana Sato" {
		t.Fatalf("store after commit: %+v (found=%v)", m, ok)
	}
	if m.SourceContext["transcript"] != "weekly.vtt" {
		t.Errorf("SourceContext=%v", m.SourceContext)
	}
	if got := session.StagedLabels(); len(got) != 0 {
		t.Errorf("staged labels after commit: %v, want none", got)
	}
}

func TestReviewSession_CommitTouchesExistingMappings(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	if err := store.Add("Speaker A", speaker.ResolvedIdentity{DisplayName: "Dana Sato"}, speaker.ProvenanceUserConfirmed, nil); err != nil {
		t.Fatal(err)
	}

	session := speaker.NewReviewSession(store)
	if err := session.Commit(context.Background(), []string{"Speaker A", "Speaker B"}, nil); err != nil {
		t.Fatal(err)
	}

	if len(store.touched) != 1 || store.touched[0] != "Speaker A" {
		t.Fatalf("touched=%v, want only the pre-existing exercised mapping", store.touched)
	}
}

func TestReviewSession_CommitErrorKeepsStaged(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.addErr = errors.New("disk full")

	session := speaker.NewReviewSession(store)
	if err := session.Stage("Speaker A", speaker.ResolvedIdentity{DisplayName: "Dana Sato"}, speaker.ProvenanceUserConfirmed); err != nil {
		t.Fatal(err)
	}

	if err := session.Commit(context.Background(), []string{"Speaker A"}, nil); err == nil {
		t.Fatal("expected commit to surface the store error")
	}
	if got := session.StagedLabels(); len(got) != 1 {
		t.Fatalf("staged labels after failed commit: %v, want the entry retained for retry", got)
	}

	// Retry succeeds once the store recovers.
	store.addErr = nil
	if err := session.Commit(context.Background(), []string{"Speaker A"}, nil); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if _, ok := store.Get("Speaker A"); !ok {
		t.Fatal("mapping missing after retried commit")
	}
}

func TestReviewSession_Apply(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	session := speaker.NewReviewSession(store)
	if err := session.Stage("Speaker A", speaker.ResolvedIdentity{DisplayName: "Dana Sato", Link: "Dana Sato"}, speaker.ProvenanceUserConfirmed); err != nil {
		t.Fatal(err)
	}

	tr := transcript.Transcript{Utterances: []transcript.Utterance{
		{Speaker: "Speaker A", Text: "hello"},
		{Speaker: "Speaker B", Text: "hi"},
	}}
	got := session.Apply(context.Background(), tr, true)

	if got.Utterances[0].Speaker != "Dana Sato" || got.Utterances[0].Link != "Dana Sato" {
		t.Errorf("resolved utterance=%+v", got.Utterances[0])
	}
	if got.Utterances[1].Speaker != "Speaker B" {
		t.Errorf("unmapped utterance changed: %+v", got.Utterances[1])
	}
}

func TestReviewSession_ApplyCountsRewrittenUtterances(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	metrics, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatal(err)
	}

	session := speaker.NewReviewSession(newFakeStore(), speaker.WithMetrics(metrics))
	if err := session.Stage("Speaker A", speaker.ResolvedIdentity{DisplayName: "Dana Sato"}, speaker.ProvenanceUserConfirmed); err != nil {
		t.Fatal(err)
	}

	// Two utterances resolve, one passes through.
	tr := transcript.Transcript{Utterances: []transcript.Utterance{
		{Speaker: "Speaker A", Text: "one"},
		{Speaker: "Speaker A", Text: "two"},
		{Speaker: "Speaker B", Text: "three"},
	}}
	session.Apply(context.Background(), tr, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var got int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "scrivener.mappings.resolved" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("scrivener.mappings.resolved is %T, want Sum[int64]", m.Data)
			}
			for _, dp := range sum.DataPoints {
				got += dp.Value
			}
		}
	}
	if got != 2 {
		t.Fatalf("scrivener.mappings.resolved=%d, want 2 (utterances rewritten, not table entries)", got)
	}
}
