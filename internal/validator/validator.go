// Package validator runs structural integrity checks on a reconstructed
// file against its original.
//
// Three checks always run, independently; none short-circuits another:
// a line-count comparison (soft), a scan for leftover boundary markers
// (hard), and a language-specific structural probe (hard when a real
// parser is available). An indentation comparison is reported alongside
// when line counts match. The validator's job is to report accurately,
// not to enforce a gate: the caller decides what to do with a failing
// file.
package validator

import (
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/pkg/types"
)

// Validate compares the reconstructed content against the original and
// returns the aggregated verdict.
func Validate(original *types.SourceFile, rec *types.ReconstructedFile, tolerance int) *types.Verdict {
	v := &types.Verdict{
		Path:      original.RelPath,
		Anomalies: rec.Anomalies,
	}
	v.LineCount.Passed = true
	v.MarkerLoss.Passed = true
	v.Structure.Passed = true
	v.Indentation.Passed = true

	checkLineCount(v, original, rec.Content, tolerance)
	checkMarkerLoss(v, rec.Content)
	checkStructure(v, original, rec.Content)
	checkIndentation(v, original.Content, rec.Content)

	return v
}

// checkLineCount flags drift beyond the configured tolerance. Soft:
// LLM reformatting commonly shifts counts slightly.
func checkLineCount(v *types.Verdict, original *types.SourceFile, content string, tolerance int) {
	got := types.CountLines(content)
	diff := original.LineCount - got
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		v.LineCount.Fail(fmt.Sprintf("line count mismatch: %d vs %d", original.LineCount, got))
	}
}

// checkMarkerLoss scans for unstripped marker tokens. Any match is a
// hard failure: it means extraction missed something or the backend
// mangled a marker beyond recognition.
func checkMarkerLoss(v *types.Verdict, content string) {
	leaks := marker.FindLeaks(content)
	if len(leaks) == 0 {
		return
	}
	v.MarkerLoss.Hard = true
	v.MarkerLoss.Fail(fmt.Sprintf("%d leftover boundary marker(s)", len(leaks)), leaks...)
}

// checkStructure runs the language-specific syntax probe. Go files get
// a real parse; everything else gets a bracket-census comparison
// against the original, which catches the common failure mode of a
// backend eating or inventing delimiters.
func checkStructure(v *types.Verdict, original *types.SourceFile, content string) {
	switch original.Language {
	case types.LangGo:
		probeGo(v, original.RelPath, content)
	default:
		probeBrackets(v, original.Content, content)
	}
}

func probeGo(v *types.Verdict, path, content string) {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, path, content, parser.AllErrors)
	if err == nil {
		return
	}

	v.Structure.Hard = true
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		first := list[0]
		v.Structure.Fail(fmt.Sprintf("go syntax error at line %d: %s", first.Pos.Line, first.Msg), first.Pos.Line)
		return
	}
	v.Structure.Fail(fmt.Sprintf("go parse error: %v", err))
}

func probeBrackets(v *types.Verdict, original, content string) {
	origCounts := countBrackets(original)
	gotCounts := countBrackets(content)

	var diffs []string
	for _, b := range []byte{'(', ')', '[', ']', '{', '}'} {
		if origCounts[b] != gotCounts[b] {
			diffs = append(diffs, fmt.Sprintf("%c: %d->%d", b, origCounts[b], gotCounts[b]))
		}
	}
	if len(diffs) > 0 {
		v.Structure.Hard = true
		v.Structure.Fail("bracket count changed: " + strings.Join(diffs, ", "))
	}
}

// countBrackets tallies brackets outside of string literals and
// line comments. A character-class heuristic, not a parser: good
// enough to spot a backend that dropped a brace.
func countBrackets(content string) map[byte]int {
	counts := make(map[byte]int, 6)

	for _, line := range strings.Split(content, "\n") {
		inString := byte(0)
		for i := 0; i < len(line); i++ {
			ch := line[i]

			if inString != 0 {
				if ch == '\\' {
					i++
				} else if ch == inString {
					inString = 0
				}
				continue
			}

			switch ch {
			case '"', '\'', '`':
				inString = ch
			case '#':
				i = len(line)
			case '/':
				if i+1 < len(line) && line[i+1] == '/' {
					i = len(line)
				}
			case '(', ')', '[', ']', '{', '}':
				counts[ch]++
			}
		}
	}

	return counts
}

// checkIndentation compares per-line leading whitespace. Only
// meaningful when line counts match; skipped otherwise. Soft failure.
func checkIndentation(v *types.Verdict, original, content string) {
	origLines := strings.Split(original, "\n")
	gotLines := strings.Split(content, "\n")
	if len(origLines) != len(gotLines) {
		return
	}

	for i := range origLines {
		if indentOf(origLines[i]) != indentOf(gotLines[i]) {
			v.Indentation.Fail(fmt.Sprintf("indentation changed at line %d", i+1), i+1)
		}
	}
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
