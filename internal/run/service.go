package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxcue/voxcue/internal/align"
	"github.com/voxcue/voxcue/internal/media"
	"github.com/voxcue/voxcue/internal/segment"
	"github.com/voxcue/voxcue/internal/srt"
	"github.com/voxcue/voxcue/internal/ssml"
	"github.com/voxcue/voxcue/internal/storage"
	"github.com/voxcue/voxcue/internal/tts"
)

// Service coordinates the narration pipeline: Segmenter, Markup Builder,
// Synthesis Client, Cue Aligner and Subtitle Writer, plus artifact
// persistence. Runs share no mutable state, so independent runs may execute
// concurrently on one Service.
type Service struct {
	synth     tts.Synthesizer
	prober    media.Prober
	store     storage.Store
	logger    *slog.Logger
	alignOpts align.Options

	now   func() time.Time
	newID func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAlignOptions overrides the alignment edge-case tuning.
func WithAlignOptions(opts align.Options) ServiceOption {
	return func(s *Service) {
		s.alignOpts = opts
	}
}

// WithClock injects the time source used for run directory names.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator injects the run ID source.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new run Service.
func NewService(synth tts.Synthesizer, prober media.Prober, store storage.Store, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		synth:     synth,
		prober:    prober,
		store:     store,
		logger:    logger,
		alignOpts: align.DefaultOptions(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one narration run end to end and returns the artifact
// locations. Fatal errors abort the run; alignment anomalies are logged,
// recorded in the manifest and returned in the Output.
func (s *Service) Run(ctx context.Context, in Input) (*Output, error) {
	text, err := resolveText(in)
	if err != nil {
		return nil, err
	}

	if err := in.Voice.Validate(); err != nil {
		return nil, err
	}

	splitter, err := segment.ForLanguage(in.Voice.LanguageCode)
	if err != nil {
		return nil, err
	}

	segments, err := splitter.Split(text)
	if err != nil {
		return nil, err
	}

	doc, err := ssml.Build(segments)
	if err != nil {
		return nil, err
	}

	runID := s.newID()
	createdAt := s.now()
	runDir := filepath.Join(in.RunsDir, createdAt.Format(dirTimestampLayout))

	logger := s.logger.With(
		slog.String("run_id", runID),
		slog.String("run_dir", runDir),
	)
	logger.Info("starting run",
		slog.Int("segments", len(segments)),
		slog.String("language_code", in.Voice.LanguageCode),
		slog.String("voice_name", in.Voice.VoiceName),
	)

	// Persist the input and the generated markup before the network call so
	// a failed run is still diagnosable from its directory.
	if _, err := s.store.SaveArtifact(ctx, runDir, ArtifactText, []byte(text)); err != nil {
		return nil, err
	}
	if _, err := s.store.SaveArtifact(ctx, runDir, ArtifactSSML, []byte(doc)); err != nil {
		return nil, err
	}

	result, err := s.synth.Synthesize(ctx, doc, in.Voice)
	if err != nil {
		return nil, fmt.Errorf("run: synthesize: %w", err)
	}
	logger.Info("synthesis complete",
		slog.Int("audio_bytes", len(result.Audio)),
		slog.Int("timepoints", len(result.Timepoints)),
	)

	audioName := "output." + in.Voice.FileExtension()
	audioPath, err := s.store.SaveArtifact(ctx, runDir, audioName, result.Audio)
	if err != nil {
		return nil, err
	}

	total := s.probeDuration(ctx, logger, audioPath)

	cues, anomalies := align.Align(segments, result.Timepoints, total, s.alignOpts)
	for _, a := range anomalies {
		logger.Warn("alignment anomaly",
			slog.String("kind", string(a.Kind)),
			slog.Int("segment", a.Segment),
			slog.String("detail", a.Detail),
		)
	}

	subtitleDoc := srt.Write(cues)
	subtitlePath, err := s.store.SaveArtifact(ctx, runDir, ArtifactSubtitles, []byte(subtitleDoc))
	if err != nil {
		return nil, err
	}

	manifest := Manifest{
		RunID:            runID,
		CreatedAt:        createdAt,
		Voice:            in.Voice,
		SegmentCount:     len(segments),
		TimepointCount:   len(result.Timepoints),
		AudioDurationSec: total.Seconds(),
		Artifacts:        []string{ArtifactText, ArtifactSSML, audioName, ArtifactSubtitles},
		Anomalies:        anomalies,
	}
	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("run: marshal manifest: %w", err)
	}
	if _, err := s.store.SaveArtifact(ctx, runDir, ArtifactManifest, manifestBytes); err != nil {
		return nil, err
	}

	urls := s.mirror(ctx, logger, runID, map[string][]byte{
		audioName:         result.Audio,
		ArtifactSubtitles: []byte(subtitleDoc),
	})

	logger.Info("run complete",
		slog.Int("cues", len(cues)),
		slog.Int("anomalies", len(anomalies)),
	)

	return &Output{
		RunID:        runID,
		RunDir:       runDir,
		AudioPath:    audioPath,
		SubtitlePath: subtitlePath,
		CueCount:     len(cues),
		Anomalies:    anomalies,
		MirrorURLs:   urls,
	}, nil
}

// probeDuration inspects the written audio for its total duration. Probe
// failure only costs the duration sanity check, so it downgrades to a
// warning and returns 0 (unknown).
func (s *Service) probeDuration(ctx context.Context, logger *slog.Logger, audioPath string) time.Duration {
	if s.prober == nil {
		return 0
	}
	total, err := s.prober.Duration(ctx, audioPath)
	if err != nil {
		logger.Warn("audio duration probe failed, final cue unbounded",
			slog.String("error", err.Error()),
		)
		return 0
	}
	return total
}

// mirror uploads artifacts to the configured remote store. A missing mirror
// is not an error; upload failures are warnings since the local run already
// completed.
func (s *Service) mirror(ctx context.Context, logger *slog.Logger, runID string, artifacts map[string][]byte) []string {
	var urls []string
	for name, data := range artifacts {
		url, err := s.store.Mirror(ctx, runID, name, data)
		if err != nil {
			if errors.Is(err, storage.ErrMirrorNotConfigured) {
				return nil
			}
			logger.Warn("artifact mirror failed",
				slog.String("artifact", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// resolveText loads the run's input text from the literal value or file.
func resolveText(in Input) (string, error) {
	switch {
	case in.FilePath != "":
		data, err := os.ReadFile(in.FilePath) // #nosec G304 - path comes from the operator
		if err != nil {
			return "", fmt.Errorf("run: read input file: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyInput, in.FilePath)
		}
		return string(data), nil
	case strings.TrimSpace(in.Text) != "":
		return in.Text, nil
	case in.Text != "":
		return "", ErrEmptyInput
	default:
		return "", ErrNoInput
	}
}
