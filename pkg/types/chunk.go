package types

import "errors"

// Chunk is a bounded, ordered slice of a source file's text, the unit
// of translation. Chunks are created by the chunker and never mutated.
//
// Invariant: concatenating Raw across a file's chunks in Index order
// reproduces the file content exactly.
type Chunk struct {
	// Index is the 0-based ordinal defining reassembly order.
	Index int

	// MarkerID pairs this chunk with its translated counterpart.
	// Unique within a run.
	MarkerID string

	// Raw is the untouched text slice from the original file.
	Raw string

	// Marked is Raw wrapped in boundary markers; this is what gets
	// sent to the backend.
	Marked string

	// StartLine and EndLine are 1-based absolute line numbers in the
	// original file, inclusive. Used for validation diagnostics.
	StartLine int
	EndLine   int
}

// Validate checks basic chunk well-formedness.
func (c *Chunk) Validate() error {
	if c.Raw == "" {
		return errors.New("chunk raw text cannot be empty")
	}
	if c.MarkerID == "" {
		return errors.New("chunk marker ID is required")
	}
	if c.StartLine <= 0 || c.EndLine < c.StartLine {
		return errors.New("chunk line range is invalid")
	}
	return nil
}

// Lines returns the number of original lines covered by the chunk.
func (c *Chunk) Lines() int {
	return c.EndLine - c.StartLine + 1
}

// TranslatedChunk is the dispatcher's result for exactly one Chunk,
// matched by MarkerID rather than by response order.
type TranslatedChunk struct {
	Index    int
	MarkerID string

	// Text is the backend's returned text (still marker-wrapped on
	// success) or the chunk's original marked text when Failed.
	Text string

	// Failed is set when the backend call gave up; reconstruction then
	// uses the chunk's original raw text directly.
	Failed bool

	// Attempts is how many backend calls were made for this chunk.
	Attempts int

	// Err carries the final backend error message when Failed.
	Err string
}

// ReconstructedFile is the reassembled output for one source file.
type ReconstructedFile struct {
	// Content is the final text, markers stripped.
	Content string

	// Merged is the number of chunks merged into Content. Always equals
	// the file's chunk count; a mismatch aborts reconstruction instead.
	Merged int

	// Fallbacks counts chunks whose original text was used because the
	// backend failed or returned corrupted markers.
	Fallbacks int

	// Anomalies counts marker-level irregularities detected during
	// extraction (missing, mismatched or duplicated markers).
	Anomalies int

	// AnomalousChunks lists the ordinal indices implicated.
	AnomalousChunks []int
}
