package ssml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxcue/voxcue/internal/segment"
)

func TestBuild_MarkAfterEverySegment(t *testing.T) {
	segments := []segment.Segment{
		{Index: 0, Text: "你好"},
		{Index: 1, Text: "世界"},
	}

	doc, err := Build(segments)
	require.NoError(t, err)

	assert.Equal(t, `<speak>你好<mark name="mark_0"/>世界<mark name="mark_1"/></speak>`, doc)
}

func TestBuild_EscapesReservedCharacters(t *testing.T) {
	segments := []segment.Segment{
		{Index: 0, Text: `Tom & Jerry <3 "quotes"`},
	}

	doc, err := Build(segments)
	require.NoError(t, err)

	assert.NotContains(t, doc, "& Jerry")
	assert.Contains(t, doc, "&amp;")
	assert.Contains(t, doc, "&lt;3")
	// The mark tag itself must survive escaping untouched.
	assert.Contains(t, doc, `<mark name="mark_0"/>`)
	assert.Equal(t, 1, strings.Count(doc, "<mark "))
}

func TestBuild_MarkNamesUniqueAndDerivedFromIndex(t *testing.T) {
	var segments []segment.Segment
	for i := 0; i < 25; i++ {
		segments = append(segments, segment.Segment{Index: i, Text: fmt.Sprintf("segment %d", i)})
	}

	doc, err := Build(segments)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := range segments {
		name := MarkName(i)
		assert.Equal(t, fmt.Sprintf("mark_%d", i), name)
		assert.False(t, seen[name], "duplicate mark name %s", name)
		seen[name] = true
		assert.Contains(t, doc, fmt.Sprintf(`<mark name="%s"/>`, name))
	}

	assert.Equal(t, len(segments), strings.Count(doc, "<mark "))
	assert.True(t, strings.HasPrefix(doc, "<speak>"))
	assert.True(t, strings.HasSuffix(doc, "</speak>"))
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}
