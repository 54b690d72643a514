// Package align reconciles the synthesis backend's mark timepoints with the
// original segment sequence to produce ordered, non-overlapping subtitle cues.
//
// A mark is inserted after its segment in the SSML document, so a reported
// offset is the end timestamp of that segment's cue; a cue starts where the
// previous one ends. The backend is free to drop marks, so the association is
// kept as a sparse map keyed by mark name and reconciled against the
// known-complete segment list, never by position.
package align

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/voxcue/voxcue/internal/segment"
	"github.com/voxcue/voxcue/internal/ssml"
	"github.com/voxcue/voxcue/internal/tts"
)

// Cue is one aligned subtitle entry. Index mirrors the segment index.
type Cue struct {
	Index int
	Text  string
	Start time.Duration
	End   time.Duration
}

// AnomalyKind classifies a non-fatal alignment irregularity.
type AnomalyKind string

// Anomaly kinds.
const (
	// AnomalyMissingMark: the backend dropped a mark and the cue end was
	// interpolated from neighboring timepoints.
	AnomalyMissingMark AnomalyKind = "missing_mark"
	// AnomalyClamped: a timepoint ran backwards and the cue was clamped to
	// the minimum duration.
	AnomalyClamped AnomalyKind = "clamped"
	// AnomalyTruncated: a cue end exceeded the total audio duration and was
	// cut back to it.
	AnomalyTruncated AnomalyKind = "truncated"
	// AnomalyUnboundedTail: nothing bounded the trailing cues, so each got
	// the default tail duration.
	AnomalyUnboundedTail AnomalyKind = "unbounded_tail"
	// AnomalyUnknownMark: the backend reported a mark name no segment owns.
	AnomalyUnknownMark AnomalyKind = "unknown_mark"
)

// Anomaly records one irregularity encountered during alignment. Anomalies
// are warnings: the run still completes and produces output.
type Anomaly struct {
	Kind    AnomalyKind `json:"kind"`
	Segment int         `json:"segment"`
	Detail  string      `json:"detail"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s (segment %d): %s", a.Kind, a.Segment, a.Detail)
}

// Options tunes the alignment edge-case handling.
type Options struct {
	// MinCueDuration is the floor applied when a timepoint would make a cue
	// end before it starts.
	MinCueDuration time.Duration
	// DefaultTail is the per-cue duration used when neither a timepoint nor
	// the total audio duration bounds the trailing cues.
	DefaultTail time.Duration
}

// DefaultOptions returns the standard alignment options.
func DefaultOptions() Options {
	return Options{
		MinCueDuration: 250 * time.Millisecond,
		DefaultTail:    5 * time.Second,
	}
}

// Align computes one cue per segment from the reported timepoints. The total
// audio duration, when known (> 0), bounds trailing cues and caps every cue
// end; pass 0 when unavailable. Align never fails: irregularities are
// repaired and returned as anomalies.
func Align(segments []segment.Segment, timepoints []tts.Timepoint, total time.Duration, opts Options) ([]Cue, []Anomaly) {
	if len(segments) == 0 {
		return nil, nil
	}
	if opts.MinCueDuration <= 0 {
		opts.MinCueDuration = DefaultOptions().MinCueDuration
	}
	if opts.DefaultTail <= 0 {
		opts.DefaultTail = DefaultOptions().DefaultTail
	}

	var anomalies []Anomaly

	offsets, unknown := offsetsByMark(segments, timepoints)
	anomalies = append(anomalies, unknown...)

	ends, interpolated := resolveEnds(segments, offsets, total, opts)
	anomalies = append(anomalies, interpolated...)

	// Second pass: chain starts and enforce ordering invariants.
	cues := make([]Cue, len(segments))
	var start time.Duration
	for i, seg := range segments {
		end := ends[i]

		if end < start {
			end = start + opts.MinCueDuration
			anomalies = append(anomalies, Anomaly{
				Kind:    AnomalyClamped,
				Segment: i,
				Detail: fmt.Sprintf("timepoint %s precedes running start %s, clamped to %s",
					ends[i], start, end),
			})
		}

		if total > 0 && end > total && total > start {
			anomalies = append(anomalies, Anomaly{
				Kind:    AnomalyTruncated,
				Segment: i,
				Detail:  fmt.Sprintf("cue end %s exceeds audio duration %s", end, total),
			})
			end = total
		}

		cues[i] = Cue{Index: seg.Index, Text: seg.Text, Start: start, End: end}
		start = end
	}

	return cues, anomalies
}

// offsetsByMark builds the sparse mark-name to offset association and flags
// timepoints whose names match no segment.
func offsetsByMark(segments []segment.Segment, timepoints []tts.Timepoint) (map[int]time.Duration, []Anomaly) {
	valid := make(map[string]int, len(segments))
	for _, seg := range segments {
		valid[ssml.MarkName(seg.Index)] = seg.Index
	}

	offsets := make(map[int]time.Duration, len(timepoints))
	var anomalies []Anomaly
	for _, tp := range timepoints {
		idx, ok := valid[tp.Mark]
		if !ok {
			anomalies = append(anomalies, Anomaly{
				Kind:    AnomalyUnknownMark,
				Segment: -1,
				Detail:  fmt.Sprintf("backend reported unknown mark %q at %s", tp.Mark, tp.Offset),
			})
			continue
		}
		offsets[idx] = tp.Offset
	}
	return offsets, anomalies
}

// resolveEnds fills the end timestamp for every segment. Runs of segments
// whose marks were dropped share the elapsed time to the next reported mark
// proportionally by rune count, so no cue ends up with an undefined or
// zero-length duration and ordering is preserved.
func resolveEnds(segments []segment.Segment, offsets map[int]time.Duration, total time.Duration, opts Options) ([]time.Duration, []Anomaly) {
	n := len(segments)
	ends := make([]time.Duration, n)
	var anomalies []Anomaly

	var prevEnd time.Duration
	for i := 0; i < n; i++ {
		if end, ok := offsets[i]; ok {
			ends[i] = end
			prevEnd = end
			continue
		}

		// Find the next segment with a reported mark; it closes the run.
		j := i + 1
		for j < n {
			if _, ok := offsets[j]; ok {
				break
			}
			j++
		}

		if j < n {
			interpolateRun(segments, ends, i, j, prevEnd, offsets[j])
			for k := i; k < j; k++ {
				anomalies = append(anomalies, Anomaly{
					Kind:    AnomalyMissingMark,
					Segment: k,
					Detail:  fmt.Sprintf("mark %s dropped by backend, end interpolated to %s", ssml.MarkName(k), ends[k]),
				})
			}
			prevEnd = ends[j]
			i = j
			continue
		}

		// No marks remain. The audio duration bounds the tail when known;
		// otherwise fall back to a fixed tail per cue.
		if total > prevEnd {
			interpolateTail(segments, ends, i, prevEnd, total)
			for k := i; k < n; k++ {
				anomalies = append(anomalies, Anomaly{
					Kind:    AnomalyMissingMark,
					Segment: k,
					Detail:  fmt.Sprintf("mark %s dropped by backend, end interpolated to %s from audio duration", ssml.MarkName(k), ends[k]),
				})
			}
		} else {
			for k := i; k < n; k++ {
				ends[k] = prevEnd + opts.DefaultTail
				anomalies = append(anomalies, Anomaly{
					Kind:    AnomalyUnboundedTail,
					Segment: k,
					Detail:  fmt.Sprintf("no timepoint or audio duration bounds cue, defaulting to %s", opts.DefaultTail),
				})
				prevEnd = ends[k]
			}
		}
		break
	}

	return ends, anomalies
}

// interpolateRun distributes the elapsed time between prevEnd and the offset
// reported for segment j across segments i..j, weighted by rune count. The
// reported offset covers the speech of the whole run, including segment j.
func interpolateRun(segments []segment.Segment, ends []time.Duration, i, j int, prevEnd, bound time.Duration) {
	elapsed := bound - prevEnd

	var totalWeight int
	for k := i; k <= j; k++ {
		totalWeight += runeWeight(segments[k].Text)
	}

	var cumulative int
	for k := i; k < j; k++ {
		cumulative += runeWeight(segments[k].Text)
		ends[k] = prevEnd + time.Duration(float64(elapsed)*float64(cumulative)/float64(totalWeight))
	}
	ends[j] = bound
}

// interpolateTail distributes the remaining audio across the unbounded
// trailing segments i..end of list.
func interpolateTail(segments []segment.Segment, ends []time.Duration, i int, prevEnd, total time.Duration) {
	n := len(segments)
	elapsed := total - prevEnd

	var totalWeight int
	for k := i; k < n; k++ {
		totalWeight += runeWeight(segments[k].Text)
	}

	var cumulative int
	for k := i; k < n; k++ {
		cumulative += runeWeight(segments[k].Text)
		ends[k] = prevEnd + time.Duration(float64(elapsed)*float64(cumulative)/float64(totalWeight))
	}
	ends[n-1] = total
}

// runeWeight is the interpolation weight of a segment: its character count,
// never less than 1 so empty-looking segments still get a share.
func runeWeight(text string) int {
	if n := utf8.RuneCountInString(text); n > 0 {
		return n
	}
	return 1
}
