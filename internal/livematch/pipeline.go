package livematch

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/scrivenerhq/scrivener/internal/directory"
	"github.com/scrivenerhq/scrivener/internal/observe"
	"github.com/scrivenerhq/scrivener/internal/speaker"
)

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithDirectory attaches a contact directory used to fill in emails for
// names the invite does not cover. Directory-sourced emails cap the slot's
// confidence at Medium.
func WithDirectory(dir directory.Directory) Option {
	return func(r *Resolver) {
		r.dir = dir
	}
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// Resolver runs the live-matching priority chain. Construct once and reuse;
// it holds no per-meeting state.
type Resolver struct {
	dir     directory.Directory
	metrics *observe.Metrics
}

// NewResolver returns a [Resolver] configured with the supplied options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// resolution is the mutable state threaded through the source chain.
type resolution struct {
	slots        []Slot
	participants []Participant
	timeline     []Turn
	providerName map[string]string

	assigned map[string]Assignment
	usedPart map[int]bool
}

// slotSource is one entry in the ranked source list. Sources run in
// declaration order; each only sees slots the earlier sources left
// unresolved and must never re-check already-resolved ones.
type slotSource struct {
	name  Source
	apply func(r *Resolver, ctx context.Context, st *resolution)
}

var slotSources = []slotSource{
	{name: SourceTimeline, apply: (*Resolver).applyTimeline},
	{name: SourceProvider, apply: (*Resolver).applyProviderNames},
	{name: "heuristics", apply: (*Resolver).applyHeuristics},
}

// Resolve assigns an identity to each diarized slot using the fixed priority
// chain: timeline evidence, then provider-identified names, then positional
// heuristics. Every slot receives an assignment; slots no source could place
// keep their raw label as the display name with Confidence None.
//
// timeline and providerNames may be nil when the capture layer or provider
// did not supply them.
func (r *Resolver) Resolve(ctx context.Context, slots []Slot, participants []Participant, timeline []Turn, providerNames map[string]string) map[string]Assignment {
	st := &resolution{
		slots:        slots,
		participants: participants,
		timeline:     timeline,
		providerName: providerNames,
		assigned:     make(map[string]Assignment, len(slots)),
		usedPart:     make(map[int]bool, len(participants)),
	}

	for _, src := range slotSources {
		if len(st.assigned) == len(st.slots) {
			break
		}
		src.apply(r, ctx, st)
	}

	// Anything left is genuinely unresolvable; keep the raw label so the
	// duplicate detector and review session can still work with it.
	for _, s := range st.slots {
		if _, ok := st.assigned[s.Label]; ok {
			continue
		}
		st.assigned[s.Label] = Assignment{
			Identity:   speaker.ResolvedIdentity{DisplayName: s.Label},
			Confidence: speaker.ConfidenceNone,
			Source:     SourceOrder,
		}
		slog.Debug("livematch: slot unresolved", "slot", s.Label)
	}

	for _, a := range st.assigned {
		r.metrics.RecordLiveSlot(ctx, string(a.Source))
	}
	return st.assigned
}

// applyTimeline resolves slots whose speaking turns correlate with exactly
// one present participant. This is the highest-confidence source and runs
// even when provider names are also available.
func (r *Resolver) applyTimeline(ctx context.Context, st *resolution) {
	if len(st.timeline) == 0 {
		return
	}

	// Tally, per slot, how often each solo-present participant was the
	// only one who could have been speaking.
	votes := make(map[string]map[string]int)
	for _, turn := range st.timeline {
		if len(turn.Present) != 1 {
			continue
		}
		if votes[turn.SlotLabel] == nil {
			votes[turn.SlotLabel] = make(map[string]int)
		}
		votes[turn.SlotLabel][turn.Present[0]]++
	}

	for _, s := range st.slots {
		if _, done := st.assigned[s.Label]; done {
			continue
		}
		name, ok := majority(votes[s.Label])
		if !ok {
			continue
		}
		idx, found := st.matchParticipant(name)
		if !found || st.usedPart[idx] {
			continue
		}
		st.assign(s.Label, r.finish(ctx, st.participants[idx].Name, st.participants[idx].Email, speaker.ConfidenceHigh, SourceTimeline))
		st.usedPart[idx] = true
	}
}

// applyProviderNames accepts real participant names returned by the
// transcription provider for slots the timeline left unresolved. Generic
// placeholders ("Speaker A", "SPK-...") are ignored.
func (r *Resolver) applyProviderNames(ctx context.Context, st *resolution) {
	if len(st.providerName) == 0 {
		return
	}
	for _, s := range st.slots {
		if _, done := st.assigned[s.Label]; done {
			continue
		}
		name := strings.TrimSpace(st.providerName[s.Label])
		if name == "" || isGenericName(name) {
			continue
		}
		if idx, found := st.matchParticipant(name); found && !st.usedPart[idx] {
			st.assign(s.Label, r.finish(ctx, st.participants[idx].Name, st.participants[idx].Email, speaker.ConfidenceHigh, SourceProvider))
			st.usedPart[idx] = true
			continue
		}
		// A real name the invite does not know; accept it as-is and let
		// the directory supply an email if it can.
		st.assign(s.Label, r.finish(ctx, name, "", speaker.ConfidenceHigh, SourceProvider))
	}
}

// applyHeuristics places the slots neither evidence source could resolve,
// in a fixed sub-order: 1:1 count match, host gets the first slot, the most
// talkative slot gets the next participant, and everything left is assigned
// in listed order.
func (r *Resolver) applyHeuristics(ctx context.Context, st *resolution) {
	remaining := st.unresolvedSlots()
	free := st.freeParticipants()
	if len(remaining) == 0 || len(free) == 0 {
		return
	}

	// (a) Equal counts: map 1:1 in stable order.
	if len(remaining) == len(free) {
		for i, s := range remaining {
			p := st.participants[free[i]]
			st.assign(s.Label, r.finish(ctx, p.Name, p.Email, speaker.ConfidenceLow, SourceCountMatch))
			st.usedPart[free[i]] = true
		}
		return
	}

	// (b) The host (or, without a host flag, the first listed participant)
	// takes the first unresolved slot.
	hostIdx := free[0]
	if idx, ok := soleHost(st.participants, st.usedPart); ok {
		hostIdx = idx
	}
	p := st.participants[hostIdx]
	st.assign(remaining[0].Label, r.finish(ctx, p.Name, p.Email, speaker.ConfidenceLow, SourceHost))
	st.usedPart[hostIdx] = true

	// (c) The most talkative remaining slot goes to the next unresolved
	// participant.
	remaining = st.unresolvedSlots()
	free = st.freeParticipants()
	if len(remaining) > 0 && len(free) > 0 {
		talk := mostTalkative(remaining)
		p := st.participants[free[0]]
		st.assign(talk.Label, r.finish(ctx, p.Name, p.Email, speaker.ConfidenceLow, SourceTalkative))
		st.usedPart[free[0]] = true
	}

	// (d) Whatever is left pairs up in listed order.
	remaining = st.unresolvedSlots()
	free = st.freeParticipants()
	for i, s := range remaining {
		if i >= len(free) {
			break
		}
		p := st.participants[free[i]]
		st.assign(s.Label, r.finish(ctx, p.Name, p.Email, speaker.ConfidenceLow, SourceOrder))
		st.usedPart[free[i]] = true
	}
}

// finish builds an assignment, consulting the directory for an email when
// the invite supplied none. A directory-sourced email caps confidence at
// Medium (the invite, not the directory, is authoritative).
func (r *Resolver) finish(ctx context.Context, name, inviteEmail string, conf speaker.Confidence, src Source) Assignment {
	a := Assignment{
		Identity: speaker.ResolvedIdentity{
			DisplayName: name,
			Email:       inviteEmail,
			Link:        name,
		},
		Confidence: conf,
		Source:     src,
	}
	if inviteEmail != "" || r.dir == nil {
		return a
	}

	contacts, err := r.dir.Lookup(ctx, name)
	if err != nil {
		slog.Warn("livematch: directory lookup failed", "name", name, "err", err)
		return a
	}
	if len(contacts) == 1 {
		a.Identity.Email = contacts[0].Email
		a.EmailInferred = true
		if a.Confidence == speaker.ConfidenceHigh {
			a.Confidence = speaker.ConfidenceMedium
		}
	}
	return a
}

// ── resolution state helpers ─────────────────────────────────────────────────

func (st *resolution) assign(label string, a Assignment) {
	st.assigned[label] = a
}

// matchParticipant finds a participant by strict name equality: exact match
// after case folding and whitespace normalization. Substring and fuzzy
// matches are explicitly disallowed here ("Ed" must never match "Fred").
func (st *resolution) matchParticipant(name string) (int, bool) {
	want := foldName(name)
	if want == "" {
		return 0, false
	}
	for i, p := range st.participants {
		if foldName(p.Name) == want {
			return i, true
		}
	}
	return 0, false
}

func (st *resolution) unresolvedSlots() []Slot {
	var out []Slot
	for _, s := range st.slots {
		if _, done := st.assigned[s.Label]; !done {
			out = append(out, s)
		}
	}
	return out
}

func (st *resolution) freeParticipants() []int {
	var out []int
	for i := range st.participants {
		if !st.usedPart[i] {
			out = append(out, i)
		}
	}
	return out
}

// ── pure helpers ─────────────────────────────────────────────────────────────

// foldName lowercases and collapses internal whitespace for strict equality
// comparison.
func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// genericNamePattern matches placeholder labels providers emit when they
// could not identify the speaker.
var genericNamePattern = regexp.MustCompile(`(?i)^(speaker\s*[a-z0-9]*|spk[-_]?\S*|s\d+|guest\s*\d*|participant\s*\d*|unknown\s*\d*)$`)

// isGenericName reports whether name is a placeholder rather than a real
// participant name.
func isGenericName(name string) bool {
	return genericNamePattern.MatchString(strings.TrimSpace(name))
}

// soleHost returns the index of the single unused participant flagged as
// host, if there is exactly one.
func soleHost(participants []Participant, used map[int]bool) (int, bool) {
	idx, n := 0, 0
	for i, p := range participants {
		if p.IsHost && !used[i] {
			idx = i
			n++
		}
	}
	return idx, n == 1
}

// majority returns the key with the most votes, requiring a unique winner.
func majority(votes map[string]int) (string, bool) {
	best, bestN, tied := "", 0, false
	for name, n := range votes {
		switch {
		case n > bestN:
			best, bestN, tied = name, n, false
		case n == bestN && n > 0:
			tied = true
		}
	}
	if best == "" || tied {
		return "", false
	}
	return best, true
}

// mostTalkative picks the slot with the most utterances, breaking ties by
// spoken duration, then by slot order.
func mostTalkative(slots []Slot) Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UtteranceCount != out[j].UtteranceCount {
			return out[i].UtteranceCount > out[j].UtteranceCount
		}
		return out[i].SpokenSeconds > out[j].SpokenSeconds
	})
	return out[0]
}
