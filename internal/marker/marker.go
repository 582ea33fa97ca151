// Package marker implements the boundary marker protocol that delimits
// chunks sent to a translation backend and identifies them afterwards.
//
// A marker ID combines a per-run random salt with a zero-padded sequence
// number (e.g. "f3a9c1_0007"). The token shape follows the form
// "---CHUNK_START_f3a9c1_0007---", a character sequence that does not
// occur naturally in source code; the generator re-randomizes its salt
// if the chunk content happens to contain it anyway.
package marker

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/transllm/pkg/types"
)

const (
	startPrefix = "---CHUNK_START_"
	endPrefix   = "---CHUNK_END_"
	tokenSuffix = "---"

	saltBytes = 3 // 6 hex chars
)

// Pattern matches any boundary marker token, start or end, from any run.
// The validator uses it to detect marker leakage in reconstructed output.
// The sequence is at least four digits; %04d stops zero-padding past 9999,
// so the patterns must accept longer runs too.
var Pattern = regexp.MustCompile(`---CHUNK_(START|END)_[0-9a-f]+_\d{4,}---`)

var (
	startPattern = regexp.MustCompile(`---CHUNK_START_([0-9a-f]+_\d{4,})---`)
	endPattern   = regexp.MustCompile(`---CHUNK_END_([0-9a-f]+_\d{4,})---`)

	// Code fences the backend may wrap around the whole response.
	openFence  = regexp.MustCompile("^\\s*```[\\w-]*[ \t]*\n")
	closeFence = regexp.MustCompile("\n\\s*```\\s*$")
)

// Generator issues run-scoped marker IDs. It is explicit state passed to
// the chunker, never a process-wide global, so concurrent runs cannot
// interfere. Not safe for concurrent use; chunking is synchronous.
type Generator struct {
	salt string
	seq  int
}

// NewGenerator creates a generator with a fresh random salt.
func NewGenerator() *Generator {
	return &Generator{salt: newSalt()}
}

func newSalt() string {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails on a broken platform; a fixed salt
		// still yields unique IDs via the sequence number.
		return "0a1b2c"
	}
	return hex.EncodeToString(buf)
}

// Next returns the next marker ID for a chunk with the given content.
// If the content already contains the would-be token (a prior-run
// leftover or a pathological file), the generator re-salts until the
// token is collision-free.
func (g *Generator) Next(content string) string {
	for {
		id := fmt.Sprintf("%s_%04d", g.salt, g.seq)
		if !strings.Contains(content, StartToken(id)) && !strings.Contains(content, EndToken(id)) {
			g.seq++
			return id
		}
		g.salt = newSalt()
	}
}

// StartToken returns the start marker token for an ID.
func StartToken(id string) string {
	return startPrefix + id + tokenSuffix
}

// EndToken returns the end marker token for an ID.
func EndToken(id string) string {
	return endPrefix + id + tokenSuffix
}

// Inject wraps chunk text with its start and end tokens. The wrapped
// form is what gets sent to the backend:
//
//	---CHUNK_START_<id>---
//	<text>
//	---CHUNK_END_<id>---
func Inject(text, id string) string {
	return StartToken(id) + "\n" + text + "\n" + EndToken(id) + "\n"
}

// Extract recovers the marker ID and inner text from a marked chunk.
// It tolerates the backend wrapping the whole response in extra
// whitespace or a markdown code fence, but fails with
// types.ErrMarkerCorruption when markers are missing, duplicated or
// mismatched.
func Extract(marked string) (id, inner string, err error) {
	s := StripFences(marked)

	starts := startPattern.FindAllStringSubmatchIndex(s, -1)
	ends := endPattern.FindAllStringSubmatchIndex(s, -1)

	switch {
	case len(starts) == 0:
		return "", "", fmt.Errorf("%w: start marker missing", types.ErrMarkerCorruption)
	case len(ends) == 0:
		return "", "", fmt.Errorf("%w: end marker missing", types.ErrMarkerCorruption)
	case len(starts) > 1:
		return "", "", fmt.Errorf("%w: %d start markers", types.ErrMarkerCorruption, len(starts))
	case len(ends) > 1:
		return "", "", fmt.Errorf("%w: %d end markers", types.ErrMarkerCorruption, len(ends))
	}

	startID := s[starts[0][2]:starts[0][3]]
	endID := s[ends[0][2]:ends[0][3]]
	if startID != endID {
		return "", "", fmt.Errorf("%w: start %s does not match end %s",
			types.ErrMarkerCorruption, startID, endID)
	}

	innerStart := starts[0][1]
	innerEnd := ends[0][0]
	if innerEnd < innerStart {
		return "", "", fmt.Errorf("%w: end marker precedes start", types.ErrMarkerCorruption)
	}

	inner = s[innerStart:innerEnd]
	// Drop the single newline Inject added on each side of the text.
	inner = strings.TrimPrefix(inner, "\n")
	inner = strings.TrimSuffix(inner, "\n")

	return startID, inner, nil
}

// StripFences removes a markdown code fence wrapped around the whole
// response, the most common way backends mangle otherwise-correct
// output. Inner fences are left alone.
func StripFences(s string) string {
	if loc := openFence.FindStringIndex(s); loc != nil && loc[0] == 0 {
		s = s[loc[1]:]
		s = closeFence.ReplaceAllString(s, "")
	}
	return s
}

// ContainsMarker reports whether text still contains any marker token.
func ContainsMarker(text string) bool {
	return Pattern.MatchString(text)
}

// FindLeaks returns the 1-based line numbers of lines still containing
// marker tokens.
func FindLeaks(text string) []int {
	if !ContainsMarker(text) {
		return nil
	}
	var lines []int
	for i, line := range strings.Split(text, "\n") {
		if Pattern.MatchString(line) {
			lines = append(lines, i+1)
		}
	}
	return lines
}
