// Package srt renders aligned cues into the SubRip subtitle format.
package srt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/voxcue/voxcue/internal/align"
)

// FormatTimestamp renders a duration as the SubRip HH:MM:SS,mmm form,
// truncating below the millisecond.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// WriteTo renders the cues to w. Blocks are numbered contiguously from 1
// regardless of the cues' internal segment indices, each terminated by a
// blank line.
func WriteTo(w io.Writer, cues []align.Cue) error {
	for i, cue := range cues {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(cue.Start),
			FormatTimestamp(cue.End),
			cue.Text,
		)
		if err != nil {
			return fmt.Errorf("srt: write cue %d: %w", i+1, err)
		}
	}
	return nil
}

// Write renders the cues as an SRT document string.
func Write(cues []align.Cue) string {
	var sb strings.Builder
	_ = WriteTo(&sb, cues)
	return sb.String()
}
