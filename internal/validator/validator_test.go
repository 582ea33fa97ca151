package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/pkg/types"
)

func recFile(content string) *types.ReconstructedFile {
	return &types.ReconstructedFile{Content: content}
}

func TestValidate_IdentityPasses(t *testing.T) {
	content := "# комментарий\ndef f(x):\n    return x + 1\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", content)

	v := Validate(file, recFile(content), 0)

	assert.True(t, v.Passed())
	assert.False(t, v.HardFailed())
	assert.Empty(t, v.Failures())
}

func TestValidate_LineCountMismatchIsSoft(t *testing.T) {
	file := types.NewSourceFile("/tmp/f.py", "f.py", "a\nb\nc\n")

	v := Validate(file, recFile("a\nb\nc\nd\ne\n"), 0)

	assert.False(t, v.LineCount.Passed)
	assert.False(t, v.LineCount.Hard)
	assert.False(t, v.HardFailed())
}

func TestValidate_LineCountWithinTolerance(t *testing.T) {
	file := types.NewSourceFile("/tmp/f.py", "f.py", "a\nb\nc\n")

	v := Validate(file, recFile("a\nb\nc\nd\n"), 1)
	assert.True(t, v.LineCount.Passed)
}

func TestValidate_MarkerLeakIsHard(t *testing.T) {
	g := marker.NewGenerator()
	id := g.Next("x\n")

	content := "a\n" + marker.StartToken(id) + "\nb\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", content)

	v := Validate(file, recFile(content), 0)

	assert.False(t, v.MarkerLoss.Passed)
	assert.True(t, v.MarkerLoss.Hard)
	assert.True(t, v.HardFailed())
	assert.Equal(t, []int{2}, v.MarkerLoss.Lines)
}

func TestValidate_GoSyntaxProbe(t *testing.T) {
	good := "package main\n\nfunc main() {\n\tprintln(\"привет\")\n}\n"
	file := types.NewSourceFile("/tmp/main.go", "main.go", good)

	v := Validate(file, recFile(good), 0)
	assert.True(t, v.Structure.Passed)

	// A translation that ate the closing brace.
	broken := "package main\n\nfunc main() {\n\tprintln(\"привет\")\n"
	v = Validate(file, recFile(broken), 1)
	assert.False(t, v.Structure.Passed)
	assert.True(t, v.Structure.Hard)
	require.NotEmpty(t, v.Structure.Lines)
}

func TestValidate_BracketCensus(t *testing.T) {
	orig := "function f(a) {\n  return [a];\n}\n"
	file := types.NewSourceFile("/tmp/f.js", "f.js", orig)

	// Same bracket shape, different text: passes.
	v := Validate(file, recFile("function f(a) {\n  return [a]; // ок\n}\n"), 0)
	assert.True(t, v.Structure.Passed)

	// Dropped closing brace: hard failure.
	v = Validate(file, recFile("function f(a) {\n  return [a];\n"), 1)
	assert.False(t, v.Structure.Passed)
	assert.True(t, v.Structure.Hard)
}

func TestValidate_BracketsInsideStringsIgnored(t *testing.T) {
	orig := "x = \"(((\"\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", orig)

	// Translation changed the bracket count inside a string literal only.
	v := Validate(file, recFile("x = \"((\"\n"), 0)
	assert.True(t, v.Structure.Passed)
}

func TestValidate_BracketsInCommentsIgnored(t *testing.T) {
	orig := "y = 1  # todo (later)\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", orig)

	v := Validate(file, recFile("y = 1  # потом\n"), 0)
	assert.True(t, v.Structure.Passed)
}

func TestValidate_IndentationChange(t *testing.T) {
	orig := "def f():\n    return 1\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", orig)

	v := Validate(file, recFile("def f():\n  return 1\n"), 0)

	assert.False(t, v.Indentation.Passed)
	assert.False(t, v.Indentation.Hard)
	assert.Contains(t, v.Indentation.Lines, 2)
}

func TestValidate_IndentationSkippedOnLineCountMismatch(t *testing.T) {
	orig := "def f():\n    return 1\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", orig)

	v := Validate(file, recFile("def f():\n  return 1\nextra\n"), 5)
	assert.True(t, v.Indentation.Passed)
}

func TestValidate_ChecksAreIndependent(t *testing.T) {
	g := marker.NewGenerator()
	id := g.Next("x\n")

	orig := "a = (1)\nb = 2\n"
	file := types.NewSourceFile("/tmp/f.py", "f.py", orig)

	// Leaked marker, changed line count and a dropped paren all at once:
	// every check must report its own finding.
	bad := "a = 1\n" + marker.EndToken(id) + "\n"
	v := Validate(file, recFile(bad), 0)

	assert.False(t, v.MarkerLoss.Passed)
	assert.False(t, v.Structure.Passed)
	assert.True(t, v.HardFailed())

	failures := strings.Join(v.Failures(), "; ")
	assert.Contains(t, failures, "marker")
	assert.Contains(t, failures, "bracket")
}
