// Package segment splits normalized input text into ordered, subtitle-sized
// segments at language-appropriate clause boundaries.
package segment

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors for segmentation.
var (
	// ErrUnsupportedLanguage is returned when no splitter is registered
	// for the requested language.
	ErrUnsupportedLanguage = errors.New("segment: unsupported language")
	// ErrNoSegments is returned when the input contains no speakable text.
	ErrNoSegments = errors.New("segment: input produced no segments")
)

// Segment is one speakable unit of the input text, sized for a single
// subtitle cue. Index is the 0-based position in reading order.
type Segment struct {
	Index int
	Text  string
}

// Splitter divides text into ordered non-empty segments.
type Splitter interface {
	// Split returns the segments of text in reading order. Every returned
	// segment has non-empty Text after trimming and a contiguous Index
	// starting at 0.
	Split(text string) ([]Segment, error)
}

// delimiterSplitter closes a segment at every delimiter rune. Delimiters are
// boundary punctuation and are not carried into segment text; all other
// runes, including quotes and the CJK enumeration comma, stay in place.
type delimiterSplitter struct {
	delimiters map[rune]struct{}
}

func newDelimiterSplitter(delims string) *delimiterSplitter {
	set := make(map[rune]struct{}, len(delims))
	for _, r := range delims {
		set[r] = struct{}{}
	}
	return &delimiterSplitter{delimiters: set}
}

// Split walks the text once, closing the current segment whenever a
// delimiter rune is reached. Trailing text without a final delimiter still
// becomes a segment.
func (s *delimiterSplitter) Split(text string) ([]Segment, error) {
	var segments []Segment
	var current strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(current.String())
		current.Reset()
		if trimmed == "" {
			return
		}
		segments = append(segments, Segment{Index: len(segments), Text: trimmed})
	}

	for _, r := range text {
		if _, ok := s.delimiters[r]; ok {
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()

	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	return segments, nil
}

// Delimiter sets per language family. The CJK set carries the full-width
// terminators alongside their ASCII counterparts since mixed-script text is
// common. Quotes, apostrophes and the enumeration comma are deliberately
// absent: they never end a spoken clause.
const (
	latinDelimiters = ".!?;:,"
	cjkDelimiters   = "。．！？；：，…‥" + latinDelimiters
)

// splitters maps the primary language subtag to its registered splitter.
var splitters = map[string]Splitter{
	"cmn": newDelimiterSplitter(cjkDelimiters),
	"zh":  newDelimiterSplitter(cjkDelimiters),
	"yue": newDelimiterSplitter(cjkDelimiters),
	"ja":  newDelimiterSplitter(cjkDelimiters),
	"ko":  newDelimiterSplitter(cjkDelimiters),
	"en":  newDelimiterSplitter(latinDelimiters),
	"de":  newDelimiterSplitter(latinDelimiters),
	"es":  newDelimiterSplitter(latinDelimiters),
	"fr":  newDelimiterSplitter(latinDelimiters),
	"it":  newDelimiterSplitter(latinDelimiters),
	"nl":  newDelimiterSplitter(latinDelimiters),
	"pt":  newDelimiterSplitter(latinDelimiters),
}

// ForLanguage returns the splitter registered for a BCP 47 language code,
// matching on the primary subtag ("cmn-CN" -> "cmn"). An unregistered
// language is a configuration error; there is no fallback rule set.
func ForLanguage(code string) (Splitter, error) {
	primary := strings.ToLower(code)
	if i := strings.IndexAny(primary, "-_"); i >= 0 {
		primary = primary[:i]
	}

	sp, ok := splitters[primary]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return sp, nil
}
