package run

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcue/voxcue/internal/align"
	"github.com/voxcue/voxcue/internal/segment"
	"github.com/voxcue/voxcue/internal/storage"
	"github.com/voxcue/voxcue/internal/tts"
)

// fakeSynthesizer returns a canned result and records the request.
type fakeSynthesizer struct {
	result   tts.Result
	err      error
	gotSSML  string
	gotVoice tts.VoiceConfig
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, ssmlDoc string, voice tts.VoiceConfig) (tts.Result, error) {
	f.gotSSML = ssmlDoc
	f.gotVoice = voice
	if f.err != nil {
		return tts.Result{}, f.err
	}
	return f.result, nil
}

// fakeProber reports a fixed duration.
type fakeProber struct {
	total time.Duration
	err   error
}

func (f *fakeProber) Duration(context.Context, string) (time.Duration, error) {
	return f.total, f.err
}

func englishVoice() tts.VoiceConfig {
	return tts.VoiceConfig{
		LanguageCode:  "en-US",
		VoiceName:     "en-US-Standard-C",
		AudioEncoding: "MP3",
	}
}

func fixedService(synth tts.Synthesizer, prober *fakeProber) *Service {
	return NewService(synth, prober, storage.NewLocalStore(), nil,
		WithClock(func() time.Time {
			return time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
		}),
		WithIDGenerator(func() string { return "test-run-id" }),
	)
}

func TestRun_EndToEnd(t *testing.T) {
	synth := &fakeSynthesizer{
		result: tts.Result{
			Audio: []byte("fake-audio"),
			Timepoints: []tts.Timepoint{
				{Mark: "mark_0", Offset: 1 * time.Second},
				{Mark: "mark_1", Offset: 2 * time.Second},
				{Mark: "mark_2", Offset: 3 * time.Second},
			},
		},
	}
	svc := fixedService(synth, &fakeProber{total: 3500 * time.Millisecond})

	runsDir := t.TempDir()
	out, err := svc.Run(context.Background(), Input{
		Text:    "A. B. C.",
		Voice:   englishVoice(),
		RunsDir: runsDir,
	})
	require.NoError(t, err)

	assert.Equal(t, "test-run-id", out.RunID)
	assert.Equal(t, filepath.Join(runsDir, "20260831_10_30_00"), out.RunDir)
	assert.Equal(t, 3, out.CueCount)
	assert.Empty(t, out.Anomalies)
	assert.Empty(t, out.MirrorURLs)

	// The synthesizer received the marked-up document.
	assert.Equal(t, `<speak>A<mark name="mark_0"/>B<mark name="mark_1"/>C<mark name="mark_2"/></speak>`, synth.gotSSML)

	// All artifacts landed in the run directory.
	for _, name := range []string{ArtifactText, ArtifactSSML, "output.mp3", ArtifactSubtitles, ArtifactManifest} {
		_, statErr := os.Stat(filepath.Join(out.RunDir, name))
		assert.NoError(t, statErr, "artifact %s", name)
	}

	audio, err := os.ReadFile(out.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-audio"), audio)

	subtitles, err := os.ReadFile(out.SubtitlePath)
	require.NoError(t, err)
	want := "1\n00:00:00,000 --> 00:00:01,000\nA\n\n" +
		"2\n00:00:01,000 --> 00:00:02,000\nB\n\n" +
		"3\n00:00:02,000 --> 00:00:03,000\nC\n\n"
	assert.Equal(t, want, string(subtitles))
}

func TestRun_ManifestContents(t *testing.T) {
	synth := &fakeSynthesizer{
		result: tts.Result{
			Audio:      []byte("audio"),
			Timepoints: []tts.Timepoint{{Mark: "mark_0", Offset: time.Second}},
		},
	}
	svc := fixedService(synth, &fakeProber{total: 4 * time.Second})

	out, err := svc.Run(context.Background(), Input{
		Text:    "One. Two.",
		Voice:   englishVoice(),
		RunsDir: t.TempDir(),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out.RunDir, ArtifactManifest))
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "test-run-id", m.RunID)
	assert.Equal(t, 2, m.SegmentCount)
	assert.Equal(t, 1, m.TimepointCount)
	assert.Equal(t, 4.0, m.AudioDurationSec)
	assert.Contains(t, m.Artifacts, "output.mp3")
	assert.Contains(t, m.Artifacts, ArtifactSubtitles)
	// The dropped second mark shows up as a recorded anomaly.
	require.NotEmpty(t, m.Anomalies)
	assert.Equal(t, align.AnomalyMissingMark, m.Anomalies[0].Kind)
}

func TestRun_InputFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("From a file."), 0o600))

	synth := &fakeSynthesizer{result: tts.Result{
		Audio:      []byte("audio"),
		Timepoints: []tts.Timepoint{{Mark: "mark_0", Offset: time.Second}},
	}}
	svc := fixedService(synth, &fakeProber{total: time.Second})

	out, err := svc.Run(context.Background(), Input{
		FilePath: path,
		Voice:    englishVoice(),
		RunsDir:  t.TempDir(),
	})
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(out.RunDir, ArtifactText))
	require.NoError(t, err)
	assert.Equal(t, "From a file.", string(saved))
}

func TestRun_EmptyInput(t *testing.T) {
	svc := fixedService(&fakeSynthesizer{}, &fakeProber{})

	_, err := svc.Run(context.Background(), Input{
		Text:    "   \n ",
		Voice:   englishVoice(),
		RunsDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.Run(context.Background(), Input{
		Voice:   englishVoice(),
		RunsDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestRun_UnreadableFile(t *testing.T) {
	svc := fixedService(&fakeSynthesizer{}, &fakeProber{})

	_, err := svc.Run(context.Background(), Input{
		FilePath: filepath.Join(t.TempDir(), "missing.txt"),
		Voice:    englishVoice(),
		RunsDir:  t.TempDir(),
	})
	assert.Error(t, err)
}

func TestRun_UnsupportedLanguageFatal(t *testing.T) {
	svc := fixedService(&fakeSynthesizer{}, &fakeProber{})

	voice := englishVoice()
	voice.LanguageCode = "xx-XX"

	_, err := svc.Run(context.Background(), Input{
		Text:    "Hello.",
		Voice:   voice,
		RunsDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, segment.ErrUnsupportedLanguage)
}

func TestRun_SynthesisErrorAborts(t *testing.T) {
	synth := &fakeSynthesizer{err: tts.ErrAuthentication}
	svc := fixedService(synth, &fakeProber{})

	runsDir := t.TempDir()
	_, err := svc.Run(context.Background(), Input{
		Text:    "Hello.",
		Voice:   englishVoice(),
		RunsDir: runsDir,
	})
	require.ErrorIs(t, err, tts.ErrAuthentication)

	// Input and markup were still persisted for diagnosis.
	runDir := filepath.Join(runsDir, "20260831_10_30_00")
	_, statErr := os.Stat(filepath.Join(runDir, ArtifactSSML))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(runDir, ArtifactSubtitles))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_ProbeFailureDowngradesToWarning(t *testing.T) {
	synth := &fakeSynthesizer{result: tts.Result{
		Audio:      []byte("audio"),
		Timepoints: []tts.Timepoint{{Mark: "mark_0", Offset: 2 * time.Second}},
	}}
	svc := fixedService(synth, &fakeProber{err: errors.New("no ffprobe")})

	out, err := svc.Run(context.Background(), Input{
		Text:    "Only one clause.",
		Voice:   englishVoice(),
		RunsDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.CueCount)
}

func TestRun_AudioExtensionFollowsEncoding(t *testing.T) {
	synth := &fakeSynthesizer{result: tts.Result{
		Audio:      []byte("wav-audio"),
		Timepoints: []tts.Timepoint{{Mark: "mark_0", Offset: time.Second}},
	}}
	svc := fixedService(synth, &fakeProber{total: time.Second})

	voice := englishVoice()
	voice.AudioEncoding = "LINEAR16"

	out, err := svc.Run(context.Background(), Input{
		Text:    "Hello there.",
		Voice:   voice,
		RunsDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.AudioPath, "output.wav"))
}

// mirrorStore wraps LocalStore with a canned mirror.
type mirrorStore struct {
	*storage.LocalStore
	uploaded map[string][]byte
}

func (m *mirrorStore) Mirror(_ context.Context, runID, name string, data []byte) (string, error) {
	m.uploaded[name] = data
	return "https://mirror.example/" + runID + "/" + name, nil
}

func TestRun_MirrorsArtifactsWhenConfigured(t *testing.T) {
	store := &mirrorStore{LocalStore: storage.NewLocalStore(), uploaded: map[string][]byte{}}
	synth := &fakeSynthesizer{result: tts.Result{
		Audio:      []byte("audio"),
		Timepoints: []tts.Timepoint{{Mark: "mark_0", Offset: time.Second}},
	}}

	svc := NewService(synth, &fakeProber{total: time.Second}, store, nil,
		WithIDGenerator(func() string { return "rid" }),
	)

	out, err := svc.Run(context.Background(), Input{
		Text:    "Mirrored.",
		Voice:   englishVoice(),
		RunsDir: t.TempDir(),
	})
	require.NoError(t, err)

	assert.Len(t, out.MirrorURLs, 2)
	assert.Contains(t, store.uploaded, "output.mp3")
	assert.Contains(t, store.uploaded, ArtifactSubtitles)
}
