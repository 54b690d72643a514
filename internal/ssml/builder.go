// Package ssml builds the SSML document sent to the synthesis backend.
//
// Each segment is followed by a <mark/> element named after the segment's
// index. The backend reports a timepoint for every mark it honors, and that
// name is the only correlation key between the request and the returned
// timing events.
package ssml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/voxcue/voxcue/internal/segment"
)

// ErrNoSegments is returned when Build is called with an empty segment list.
var ErrNoSegments = errors.New("ssml: no segments to build")

// MarkName returns the mark identifier for a segment index.
// The synthesis backend echoes this name back in its timepoints.
func MarkName(index int) string {
	return fmt.Sprintf("mark_%d", index)
}

// Build serializes segments into a single <speak> document. Segment text is
// XML-escaped before insertion so reserved characters can never corrupt or
// duplicate a mark boundary.
func Build(segments []segment.Segment) (string, error) {
	if len(segments) == 0 {
		return "", ErrNoSegments
	}

	var sb strings.Builder
	sb.WriteString("<speak>")
	for _, seg := range segments {
		if err := xml.EscapeText(&sb, []byte(seg.Text)); err != nil {
			return "", fmt.Errorf("ssml: escape segment %d: %w", seg.Index, err)
		}
		fmt.Fprintf(&sb, `<mark name="%s"/>`, MarkName(seg.Index))
	}
	sb.WriteString("</speak>")

	return sb.String(), nil
}
