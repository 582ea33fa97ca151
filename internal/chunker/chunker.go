package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/pkg/types"
)

// DefaultTargetLines is the default chunk size budget in lines.
const DefaultTargetLines = 150

// Chunk splits a file into marker-wrapped chunks of at most targetLines
// lines each. An empty file yields zero chunks; a file shorter than
// targetLines yields exactly one.
func Chunk(g *marker.Generator, file *types.SourceFile, targetLines int) ([]*types.Chunk, error) {
	if targetLines < 1 {
		return nil, fmt.Errorf("target lines must be >= 1, got %d", targetLines)
	}

	lines := splitKeepEnds(file.Content)
	if len(lines) == 0 {
		return nil, nil
	}

	chunks := make([]*types.Chunk, 0, (len(lines)+targetLines-1)/targetLines)

	start := 0
	for start < len(lines) {
		end := start + targetLines
		if end > len(lines) {
			end = len(lines)
		}

		// Push the boundary forward while it would cut a
		// marker-protected region from an earlier run.
		for end < len(lines) && markerUnbalanced(lines[start:end]) {
			end++
		}

		raw := strings.Join(lines[start:end], "")
		id := g.Next(raw)

		chunks = append(chunks, &types.Chunk{
			Index:     len(chunks),
			MarkerID:  id,
			Raw:       raw,
			Marked:    marker.Inject(raw, id),
			StartLine: start + 1,
			EndLine:   end,
		})
		start = end
	}

	return chunks, nil
}

// splitKeepEnds splits content into lines that retain their trailing
// newline, so that joining them back is lossless. A final line without
// a newline is kept as-is; empty content yields no lines.
func splitKeepEnds(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// markerUnbalanced reports whether the segment opens more marker
// regions than it closes.
func markerUnbalanced(lines []string) bool {
	depth := 0
	for _, line := range lines {
		if !marker.Pattern.MatchString(line) {
			continue
		}
		if strings.Contains(line, "CHUNK_START") {
			depth++
		} else if depth > 0 {
			depth--
		}
	}
	return depth > 0
}
