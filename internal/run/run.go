// Package run orchestrates one narration run: segmenting the input, calling
// the synthesis backend, aligning cues and persisting all artifacts into a
// timestamped run directory.
package run

import (
	"errors"
	"time"

	"github.com/voxcue/voxcue/internal/align"
	"github.com/voxcue/voxcue/internal/tts"
)

// Static errors for run input handling.
var (
	// ErrEmptyInput is returned when the input text is empty after trimming.
	ErrEmptyInput = errors.New("run: input text is empty")
	// ErrNoInput is returned when neither literal text nor a file is given.
	ErrNoInput = errors.New("run: no input text or file provided")
)

// Artifact names inside a run directory.
const (
	ArtifactText      = "text.txt"
	ArtifactSSML      = "ssml.txt"
	ArtifactSubtitles = "subtitles.srt"
	ArtifactManifest  = "run.json"
)

// dirTimestampLayout names run directories after their creation time.
const dirTimestampLayout = "20060102_15_04_05"

// Input describes one narration run. Exactly one of Text and FilePath is
// set; the CLI enforces the exclusivity.
type Input struct {
	// Text is the literal input text.
	Text string
	// FilePath is the path of a text file to narrate.
	FilePath string
	// Voice selects the synthesis voice and output encoding.
	Voice tts.VoiceConfig
	// RunsDir is the root under which the run directory is created.
	RunsDir string
}

// Output reports where a completed run left its artifacts.
type Output struct {
	// RunID is the unique identifier recorded in the manifest.
	RunID string
	// RunDir is the timestamped directory holding all artifacts.
	RunDir string
	// AudioPath is the local path of the narration audio.
	AudioPath string
	// SubtitlePath is the local path of the SRT file.
	SubtitlePath string
	// CueCount is the number of subtitle cues written.
	CueCount int
	// Anomalies are the non-fatal alignment warnings collected during the run.
	Anomalies []align.Anomaly
	// MirrorURLs are the remote copies of the artifacts, when mirroring is
	// configured.
	MirrorURLs []string
}

// Manifest is the run.json record written alongside the artifacts.
type Manifest struct {
	RunID            string          `json:"run_id"`
	CreatedAt        time.Time       `json:"created_at"`
	Voice            tts.VoiceConfig `json:"voice"`
	SegmentCount     int             `json:"segment_count"`
	TimepointCount   int             `json:"timepoint_count"`
	AudioDurationSec float64         `json:"audio_duration_sec,omitempty"`
	Artifacts        []string        `json:"artifacts"`
	Anomalies        []align.Anomaly `json:"anomalies,omitempty"`
}
