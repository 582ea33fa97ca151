package translator

import (
	"fmt"
	"strings"

	"github.com/dshills/transllm/pkg/types"
)

// systemPrompt builds the structure-preserving translation instructions
// sent as the system message with every chunk. The rules are fixed;
// project-specific instructions from the request are appended verbatim.
func systemPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a precision code translator. Translate %s natural language to %s while preserving code structure exactly.

TRANSLATE ONLY:
- Comments (#, //, /* */, <!-- -->) and documentation strings
- User-facing message strings with natural language content

NEVER TRANSLATE:
- Keywords, operators, identifiers, import paths, URLs, regexes, SQL
- JSON keys, configuration values, technical constants and enum values
- Chunk boundary markers of the form ---CHUNK_START_xxx--- / ---CHUNK_END_xxx---

REQUIREMENTS:
- Keep the line count of the output equal to the input
- Preserve indentation, whitespace, brackets, quotes and blank lines exactly
- Return only the translated text: no markdown fences, no explanations,
  no meta-commentary of any kind
- When uncertain, preserve the original text unchanged`,
		req.SourceLang, req.TargetLang)

	if req.Instructions != "" {
		b.WriteString("\n\nPROJECT-SPECIFIC INSTRUCTIONS:\n")
		b.WriteString(req.Instructions)
	}

	return b.String()
}

// userPrompt wraps the chunk text with its line count so the model can
// verify it preserved the structure.
func userPrompt(text string) string {
	n := types.CountLines(text)
	return fmt.Sprintf("INPUT (%d lines):\n%s\n\nOUTPUT (%d lines required):", n, text, n)
}
