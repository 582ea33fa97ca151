package marker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/transllm/pkg/types"
)

func TestInjectExtract_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"trailing newline", "line one\nline two\n"},
		{"no trailing newline", "line one\nline two"},
		{"single line", "только одна строка\n"},
		{"blank lines inside", "a\n\n\nb\n"},
		{"trailing blank line", "a\nb\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator()
			id := g.Next(tt.text)

			marked := Inject(tt.text, id)
			gotID, inner, err := Extract(marked)

			require.NoError(t, err)
			assert.Equal(t, id, gotID)
			assert.Equal(t, tt.text, inner)
		})
	}
}

func TestExtract_ToleratesFencesAndWhitespace(t *testing.T) {
	g := NewGenerator()
	text := "def greet():\n    pass\n"
	id := g.Next(text)
	marked := Inject(text, id)

	wrapped := "```python\n" + marked + "\n```"
	gotID, inner, err := Extract(wrapped)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Contains(t, inner, "def greet():")
}

func TestExtract_Corruption(t *testing.T) {
	g := NewGenerator()
	text := "hello\n"
	id := g.Next(text)
	marked := Inject(text, id)

	otherID := g.Next(text)

	tests := []struct {
		name  string
		input string
	}{
		{"no markers at all", text},
		{"start missing", strings.Replace(marked, StartToken(id), "", 1)},
		{"end missing", strings.Replace(marked, EndToken(id), "", 1)},
		{"duplicated start", StartToken(id) + "\n" + marked},
		{"duplicated end", marked + EndToken(id) + "\n"},
		{"mismatched ids", StartToken(id) + "\n" + text + "\n" + EndToken(otherID) + "\n"},
		{"end precedes start", EndToken(id) + "\n" + text + "\n" + StartToken(id) + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Extract(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrMarkerCorruption), "want ErrMarkerCorruption, got %v", err)
		})
	}
}

func TestGenerator_UniqueIDs(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := g.Next("some content\n")
		assert.False(t, seen[id], "duplicate marker ID %s", id)
		seen[id] = true
	}
}

func TestGenerator_ResaltsOnCollision(t *testing.T) {
	g := NewGenerator()

	// Force content that contains the exact token the generator would
	// produce next.
	colliding := fmt.Sprintf("junk\n%s\nmore junk\n", StartToken(fmt.Sprintf("%s_%04d", g.salt, g.seq)))

	id := g.Next(colliding)
	assert.NotContains(t, colliding, StartToken(id))
	assert.NotContains(t, colliding, EndToken(id))
}

func TestGenerator_SequencePast9999(t *testing.T) {
	g := NewGenerator()
	g.seq = 9999

	for i := 0; i < 3; i++ {
		text := "content\n"
		id := g.Next(text)

		gotID, inner, err := Extract(Inject(text, id))
		require.NoError(t, err, "marker ID %s must survive its own round trip", id)
		assert.Equal(t, id, gotID)
		assert.Equal(t, text, inner)

		leaks := FindLeaks(StartToken(id) + "\n")
		assert.Equal(t, []int{1}, leaks, "leak scan must still see marker ID %s", id)
	}
}

func TestFindLeaks(t *testing.T) {
	g := NewGenerator()
	id := g.Next("x\n")

	content := "clean line\n" + StartToken(id) + "\nanother\n" + EndToken(id) + "\n"
	leaks := FindLeaks(content)
	assert.Equal(t, []int{2, 4}, leaks)

	assert.Nil(t, FindLeaks("no markers here\n"))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "code", StripFences("```go\ncode\n```"))
	assert.Equal(t, "code", StripFences("```\ncode\n```"))

	// Inner fences stay untouched.
	in := "text\n```\ninner\n```\ntail\n"
	assert.Equal(t, in, StripFences(in))
}
