// Command scrivener resolves speaker identities in meeting transcripts and
// exports the result as markdown meeting notes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/scrivenerhq/scrivener/internal/config"
	"github.com/scrivenerhq/scrivener/internal/directory"
	"github.com/scrivenerhq/scrivener/internal/livematch"
	"github.com/scrivenerhq/scrivener/internal/observe"
	"github.com/scrivenerhq/scrivener/internal/speaker"
	"github.com/scrivenerhq/scrivener/internal/speaker/mapstore"
	"github.com/scrivenerhq/scrivener/internal/transcript"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	meetingPath := flag.String("meeting", "", "optional meeting manifest (participants, timeline, provider names) for live matching")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "scrivener: no transcript files given (expected .vtt or .json)")
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "scrivener: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "scrivener: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("scrivener starting",
		"config", *configPath,
		"transcripts", len(files),
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "scrivener"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.Metrics.ListenAddr != "" {
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: metricsMux()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
		defer srv.Close()
		slog.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
	}

	// ── Mapping store ─────────────────────────────────────────────────────────
	store, err := mapstore.Open(cfg.Storage.MappingsPath)
	if err != nil {
		slog.Error("failed to open mapping store", "path", cfg.Storage.MappingsPath, "err", err)
		return 1
	}

	// ── Contact directory ─────────────────────────────────────────────────────
	dir, closeDir, err := buildDirectory(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise contact directory", "err", err)
		return 1
	}
	defer closeDir()

	// ── Meeting manifest (optional) ───────────────────────────────────────────
	var manifest *meetingManifest
	if *meetingPath != "" {
		manifest, err = loadManifest(*meetingPath)
		if err != nil {
			slog.Error("failed to load meeting manifest", "path", *meetingPath, "err", err)
			return 1
		}
		slog.Info("meeting manifest loaded",
			"participants", len(manifest.Participants),
			"timeline_turns", len(manifest.Timeline),
		)
	}

	// ── Process transcripts ───────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, path := range files {
		g.Go(func() error {
			return processTranscript(gctx, cfg, store, dir, manifest, path)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("done", "transcripts", len(files))
	return 0
}

// processTranscript runs the full resolution flow for one transcript file:
// live matching (when a manifest exists), duplicate detection, operator
// inference, mapping application, commit, and markdown export.
func processTranscript(ctx context.Context, cfg *config.Config, store speaker.MappingStore, dir directory.Directory, manifest *meetingManifest, path string) error {
	t, err := parseTranscript(path)
	if err != nil {
		return err
	}
	labels := speaker.ExtractDistinctLabels(t)
	slog.Info("transcript parsed", "path", path, "utterances", len(t.Utterances), "speakers", len(labels))

	session := speaker.NewReviewSession(store)

	// Live matching against the meeting manifest comes first: its evidence
	// outranks anything detection can infer from labels alone.
	if manifest != nil {
		stageLiveAssignments(ctx, session, dir, manifest, t, labels)
	}

	res := session.Detect(ctx, labels)
	session.StageAutoMerges(res)
	for _, am := range res.AutoMerges {
		slog.Info("auto-merge", "from", am.From, "to", am.To, "reason", am.Reason)
	}
	// Suggestions need a human decision; surface them without acting.
	for _, sug := range res.Suggestions {
		slog.Info("possible duplicate — review suggested",
			"speakers", fmt.Sprintf("%s / %s", sug.Speakers[0], sug.Speakers[1]),
			"reason", sug.Reason,
		)
	}

	profile := speaker.Profile{Name: cfg.Profile.Name, Email: cfg.Profile.Email}
	if sug, ok := speaker.SuggestOperator(labels, profile); ok {
		slog.Info("single speaker inferred as operator", "label", sug.RawLabel, "name", sug.Identity.DisplayName)
		session.StageOperator(sug)
	}

	resolved := session.Apply(ctx, *t, cfg.Export.UseLinkSyntax)
	if err := session.Commit(ctx, labels, map[string]string{"transcript": filepath.Base(path)}); err != nil {
		return err
	}

	out := outputPath(cfg, path)
	md := transcript.RenderMarkdown(transcript.ExportMeta{
		Title:     titleFor(t, path),
		Attendees: speaker.ExtractDistinctLabels(&resolved),
		Source:    filepath.Base(path),
		Generated: time.Now(),
	}, resolved)
	if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", out, err)
	}
	slog.Info("exported", "path", out)
	return nil
}

// stageLiveAssignments runs the live-matching chain over the transcript's
// speaker slots and stages every confidently resolved assignment.
func stageLiveAssignments(ctx context.Context, session *speaker.ReviewSession, dir directory.Directory, manifest *meetingManifest, t *transcript.Transcript, labels []string) {
	var opts []livematch.Option
	if dir != nil {
		opts = append(opts, livematch.WithDirectory(dir))
	}
	resolver := livematch.NewResolver(opts...)

	slots := make([]livematch.Slot, 0, len(labels))
	for _, l := range labels {
		slots = append(slots, livematch.Slot{
			Label:          l,
			UtteranceCount: t.UtteranceCount(l),
			SpokenSeconds:  t.Duration(l),
		})
	}

	assignments := resolver.Resolve(ctx, slots, manifest.Participants, manifest.Timeline, manifest.ProviderNames)
	for label, a := range assignments {
		if a.Confidence != speaker.ConfidenceHigh && a.Confidence != speaker.ConfidenceMedium {
			slog.Debug("live match too weak to stage", "slot", label, "source", a.Source, "confidence", a.Confidence)
			continue
		}
		if err := session.Stage(label, a.Identity, speaker.ProvenanceAutoMerged); err != nil {
			slog.Warn("could not stage live match", "slot", label, "err", err)
			continue
		}
		slog.Info("live match", "slot", label, "name", a.Identity.DisplayName, "source", a.Source, "confidence", a.Confidence)
	}
}

// ── Input handling ────────────────────────────────────────────────────────────

// meetingManifest carries the per-meeting signals the live matcher consumes.
type meetingManifest struct {
	Title         string                  `json:"title,omitempty"`
	Participants  []livematch.Participant `json:"participants"`
	Timeline      []livematch.Turn        `json:"timeline,omitempty"`
	ProviderNames map[string]string       `json:"provider_names,omitempty"`
}

func loadManifest(path string) (*meetingManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &meetingManifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return m, nil
}

func parseTranscript(path string) (*transcript.Transcript, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return transcript.ParseVTT(path)
	case ".json":
		return transcript.ParseJSON(path)
	default:
		return nil, fmt.Errorf("unsupported transcript format %q (expected .vtt or .json)", path)
	}
}

func titleFor(t *transcript.Transcript, path string) string {
	if t.Title != "" {
		return t.Title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func outputPath(cfg *config.Config, inPath string) string {
	dir := cfg.Export.OutputDir
	if dir == "" {
		dir = filepath.Dir(inPath)
	}
	base := filepath.Base(inPath)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".md")
}

// ── Contact directory wiring ──────────────────────────────────────────────────

// buildDirectory selects the directory backing from config: Postgres when a
// DSN is set, the static contact list otherwise, nil when neither is
// configured.
func buildDirectory(ctx context.Context, cfg *config.Config) (directory.Directory, func(), error) {
	noop := func() {}

	if dsn := cfg.Directory.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		d := directory.NewPostgresDirectory(pool)
		if err := d.Migrate(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		slog.Info("contact directory ready", "backend", "postgres")
		return d, pool.Close, nil
	}

	if len(cfg.Directory.Contacts) > 0 {
		contacts := make([]directory.Contact, 0, len(cfg.Directory.Contacts))
		for _, c := range cfg.Directory.Contacts {
			contacts = append(contacts, directory.Contact{Name: c.Name, Email: c.Email})
		}
		slog.Info("contact directory ready", "backend", "static", "contacts", len(contacts))
		return directory.NewStatic(contacts), noop, nil
	}

	return nil, noop, nil
}

// ── Metrics endpoint ──────────────────────────────────────────────────────────

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
