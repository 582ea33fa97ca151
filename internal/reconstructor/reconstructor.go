// Package reconstructor reassembles translated chunks, in original
// order, into a complete file.
//
// Lookup is by marker ID, never by arrival order: the backend may
// reorder, truncate or duplicate markers under failure. A chunk whose
// markers were corrupted falls back to its original untranslated text;
// content is never fabricated. A missing result for any ordinal is a
// hard failure for the whole file.
package reconstructor

import (
	"errors"
	"strings"

	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/pkg/types"
)

// Reconstruct builds the output file from the dispatcher's results.
//
// For every ordinal index in the original chunk sequence it looks up
// the translated chunk by marker ID, extracts the inner text via the
// marker protocol, and appends it in ordinal order. It returns a
// *types.ReconstructionError when any chunk has no result; the caller
// must then exclude the file from output entirely.
func Reconstruct(file *types.SourceFile, chunks []*types.Chunk, results []types.TranslatedChunk) (*types.ReconstructedFile, error) {
	byID := make(map[string]*types.TranslatedChunk, len(results))
	for i := range results {
		tc := &results[i]
		if _, dup := byID[tc.MarkerID]; dup {
			return nil, &types.ReconstructionError{
				Path:     file.Path,
				Expected: len(chunks),
				Got:      len(results),
				Reason:   "duplicate marker ID " + tc.MarkerID,
			}
		}
		byID[tc.MarkerID] = tc
	}

	var b strings.Builder
	b.Grow(len(file.Content))

	out := &types.ReconstructedFile{}

	for _, chunk := range chunks {
		tc, ok := byID[chunk.MarkerID]
		if !ok {
			return nil, &types.ReconstructionError{
				Path:     file.Path,
				Expected: len(chunks),
				Got:      out.Merged,
				Reason:   "no result for marker ID " + chunk.MarkerID,
			}
		}

		b.WriteString(resolveChunk(chunk, tc, out))
		out.Merged++
	}

	if out.Merged != len(chunks) {
		return nil, &types.ReconstructionError{
			Path:     file.Path,
			Expected: len(chunks),
			Got:      out.Merged,
			Reason:   "merged count mismatch",
		}
	}

	out.Content = b.String()
	return out, nil
}

// resolveChunk picks the text contributed by one chunk: the extracted
// translation when markers survived, the original raw text otherwise.
func resolveChunk(chunk *types.Chunk, tc *types.TranslatedChunk, out *types.ReconstructedFile) string {
	if tc.Failed {
		// Dispatcher already fell back; use the original directly
		// without marker extraction.
		out.Fallbacks++
		return chunk.Raw
	}

	id, inner, err := marker.Extract(tc.Text)
	if err != nil {
		if errors.Is(err, types.ErrMarkerCorruption) {
			out.Anomalies++
			out.AnomalousChunks = append(out.AnomalousChunks, chunk.Index)
			out.Fallbacks++
			return chunk.Raw
		}
		// Extraction only fails with marker corruption today; treat
		// anything else the same way rather than dropping the chunk.
		out.Anomalies++
		out.AnomalousChunks = append(out.AnomalousChunks, chunk.Index)
		out.Fallbacks++
		return chunk.Raw
	}

	if id != chunk.MarkerID {
		out.Anomalies++
		out.AnomalousChunks = append(out.AnomalousChunks, chunk.Index)
		out.Fallbacks++
		return chunk.Raw
	}

	// Chunks carry their trailing newline in Raw; a backend that
	// swallowed the final newline would otherwise glue two lines
	// together at every chunk seam.
	if strings.HasSuffix(chunk.Raw, "\n") && !strings.HasSuffix(inner, "\n") {
		inner += "\n"
	}

	return inner
}
