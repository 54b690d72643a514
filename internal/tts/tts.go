// Package tts defines the synthesis backend boundary: the Synthesizer
// interface, the validated voice configuration, the error taxonomy for
// backend failures, and the retry policy applied around the network call.
package tts

import (
	"context"
	"time"
)

// Timepoint is one timing event reported by the backend: the audio offset at
// which the named mark's position was reached. The backend may drop
// timepoints for very short or merged segments, so the list is not
// guaranteed to be complete.
type Timepoint struct {
	Mark   string
	Offset time.Duration
}

// Result is the output of one synthesis request. Audio is always complete
// even when Timepoints is partial; gap handling is the aligner's job.
type Result struct {
	Audio      []byte
	Timepoints []Timepoint
}

// Synthesizer defines the interface for speech synthesis backends.
type Synthesizer interface {
	// Synthesize renders the SSML document to audio and returns the audio
	// bytes together with the timepoints the backend reported for the
	// document's marks, in backend order.
	Synthesize(ctx context.Context, ssmlDoc string, voice VoiceConfig) (Result, error)
}
