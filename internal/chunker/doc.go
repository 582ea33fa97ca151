// Package chunker splits a source file into an ordered sequence of
// line-bounded chunks for translation.
//
// Splitting happens at line boundaries only, never mid-line. Each chunk
// covers at most the target number of lines except possibly the final
// one. Concatenating the raw text of all chunks in ordinal order
// reproduces the original file content exactly.
//
// # Basic Usage
//
//	g := marker.NewGenerator()
//	chunks, err := chunker.Chunk(g, file, 150)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, c := range chunks {
//	    fmt.Printf("chunk %d: lines %d-%d\n", c.Index, c.StartLine, c.EndLine)
//	}
//
// # Idempotence
//
// A file that still carries boundary markers from an earlier run is
// never split inside a marker-protected region: a chunk boundary that
// would separate a start marker from its end marker is pushed forward
// until the region closes. Re-chunking already-chunked text therefore
// cannot interleave markers.
//
// Chunking is deterministic: identical content and target always
// produce the identical split. Marker IDs come from the run-scoped
// generator and differ between runs by design.
package chunker
