// Package types defines the shared domain types for the translation pipeline.
//
// The pipeline moves a source file through four stages:
//
//	SourceFile -> []Chunk -> []TranslatedChunk -> ReconstructedFile -> Verdict
//
// A SourceFile is immutable once read. The chunker slices it into ordered
// Chunks, each wrapped in boundary markers. The dispatcher produces exactly
// one TranslatedChunk per Chunk. The reconstructor reassembles them in
// ordinal order and the validator scores the result.
//
// All types in this package are plain data; they carry no behavior beyond
// small derived accessors and never touch the filesystem or network.
package types
