package types

import (
	"path/filepath"
	"strings"
)

// Language identifies the programming language of a source file,
// derived from its extension. It selects the structural probe used
// during validation.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangRust       Language = "rust"
	LangPHP        Language = "php"
	LangSwift      Language = "swift"
	LangKotlin     Language = "kotlin"
	LangHTML       Language = "html"
	LangCSS        Language = "css"
	LangUnknown    Language = "unknown"
)

var extToLanguage = map[string]Language{
	".go":     LangGo,
	".py":     LangPython,
	".js":     LangJavaScript,
	".jsx":    LangJavaScript,
	".ts":     LangTypeScript,
	".tsx":    LangTypeScript,
	".java":   LangJava,
	".c":      LangC,
	".h":      LangC,
	".cpp":    LangCPP,
	".cc":     LangCPP,
	".hpp":    LangCPP,
	".cs":     LangCSharp,
	".rb":     LangRuby,
	".rs":     LangRust,
	".php":    LangPHP,
	".swift":  LangSwift,
	".kt":     LangKotlin,
	".html":   LangHTML,
	".css":    LangCSS,
	".scss":   LangCSS,
}

// DetectLanguage maps a file path to a Language via its extension.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extToLanguage[ext]; ok {
		return lang
	}
	return LangUnknown
}

// SourceFile is an immutable snapshot of a file queued for translation.
type SourceFile struct {
	// Path is the absolute path the content was read from.
	Path string

	// RelPath is the path relative to the project root, used for
	// report keys and for mirroring the output tree.
	RelPath string

	// Content is the raw file text, exactly as read.
	Content string

	// Language is derived from the file extension at creation time.
	Language Language

	// LineCount is the number of lines in Content (splitlines semantics:
	// a trailing newline does not open a final empty line).
	LineCount int
}

// NewSourceFile builds a SourceFile from already-read content.
func NewSourceFile(path, relPath, content string) *SourceFile {
	return &SourceFile{
		Path:      path,
		RelPath:   relPath,
		Content:   content,
		Language:  DetectLanguage(path),
		LineCount: CountLines(content),
	}
}

// CountLines counts lines the way Python's splitlines does: empty
// content has zero lines and a trailing newline terminates the last
// line instead of opening a new one.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
