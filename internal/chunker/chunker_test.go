package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/pkg/types"
)

func makeFile(t *testing.T, lines int) *types.SourceFile {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return types.NewSourceFile("/tmp/f.py", "f.py", b.String())
}

func TestChunk_SplitSizes(t *testing.T) {
	g := marker.NewGenerator()
	file := makeFile(t, 10)

	chunks, err := Chunk(g, file, 4)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 4, chunks[0].Lines())
	assert.Equal(t, 4, chunks[1].Lines())
	assert.Equal(t, 2, chunks[2].Lines())

	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)
	assert.Equal(t, 5, chunks[1].StartLine)
	assert.Equal(t, 8, chunks[1].EndLine)
	assert.Equal(t, 9, chunks[2].StartLine)
	assert.Equal(t, 10, chunks[2].EndLine)
}

func TestChunk_ConcatenationIsLossless(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"trailing newline", "a\nb\nc\nd\ne\n"},
		{"no trailing newline", "a\nb\nc\nd\ne"},
		{"blank lines", "a\n\n\nb\n\n"},
		{"crlf preserved", "a\r\nb\r\nc\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := marker.NewGenerator()
			file := types.NewSourceFile("/tmp/f.txt", "f.txt", tt.content)

			chunks, err := Chunk(g, file, 2)
			require.NoError(t, err)

			var b strings.Builder
			for _, c := range chunks {
				b.WriteString(c.Raw)
			}
			assert.Equal(t, tt.content, b.String())
		})
	}
}

func TestChunk_EmptyFile(t *testing.T) {
	g := marker.NewGenerator()
	file := types.NewSourceFile("/tmp/empty.py", "empty.py", "")

	chunks, err := Chunk(g, file, DefaultTargetLines)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_SingleChunkForShortFile(t *testing.T) {
	g := marker.NewGenerator()
	file := makeFile(t, 5)

	chunks, err := Chunk(g, file, DefaultTargetLines)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, file.Content, chunks[0].Raw)
}

func TestChunk_RejectsBadTarget(t *testing.T) {
	g := marker.NewGenerator()
	_, err := Chunk(g, makeFile(t, 3), 0)
	assert.Error(t, err)
}

func TestChunk_UniqueMarkerIDs(t *testing.T) {
	g := marker.NewGenerator()
	chunks, err := Chunk(g, makeFile(t, 20), 2)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range chunks {
		assert.False(t, seen[c.MarkerID], "duplicate marker ID %s", c.MarkerID)
		seen[c.MarkerID] = true
	}
}

func TestChunk_MarkedRoundTrips(t *testing.T) {
	g := marker.NewGenerator()
	chunks, err := Chunk(g, makeFile(t, 10), 4)
	require.NoError(t, err)

	for _, c := range chunks {
		id, inner, err := marker.Extract(c.Marked)
		require.NoError(t, err)
		assert.Equal(t, c.MarkerID, id)
		assert.Equal(t, c.Raw, inner)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	file := makeFile(t, 17)

	a, err := Chunk(marker.NewGenerator(), file, 5)
	require.NoError(t, err)
	b, err := Chunk(marker.NewGenerator(), file, 5)
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Raw, b[i].Raw)
		assert.Equal(t, a[i].StartLine, b[i].StartLine)
		assert.Equal(t, a[i].EndLine, b[i].EndLine)
	}
}

func TestChunk_AvoidsSplittingMarkedRegions(t *testing.T) {
	// Content that already carries markers from an earlier run must not
	// have a chunk boundary inside the marked region.
	g := marker.NewGenerator()
	inner := "one\ntwo\nthree\n"
	id := g.Next(inner)
	content := "head\n" + marker.Inject(inner, id) + "tail\n"

	file := types.NewSourceFile("/tmp/f.txt", "f.txt", content)
	chunks, err := Chunk(marker.NewGenerator(), file, 2)
	require.NoError(t, err)

	for _, c := range chunks {
		starts := strings.Count(c.Raw, "CHUNK_START")
		ends := strings.Count(c.Raw, "CHUNK_END")
		assert.Equal(t, starts, ends, "chunk %d splits a marked region:\n%s", c.Index, c.Raw)
	}
}
