package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/transllm/pkg/types"
)

func passedVerdict(path string) *types.Verdict {
	v := &types.Verdict{Path: path}
	v.LineCount.Passed = true
	v.MarkerLoss.Passed = true
	v.Structure.Passed = true
	v.Indentation.Passed = true
	return v
}

func sampleAggregator() *Aggregator {
	agg := NewAggregator("run-1")
	agg.Provider = "groq"
	agg.Model = "llama-3.3-70b-versatile"
	agg.SourceLang = "Russian"
	agg.TargetLang = "English"

	agg.Add(&File{Path: "b/ok.py", Language: "python", Chunks: 3, Verdict: passedVerdict("b/ok.py")})

	flagged := passedVerdict("a/flagged.py")
	flagged.LineCount.Fail("line count mismatch: 10 vs 12")
	agg.Add(&File{Path: "a/flagged.py", Language: "python", Chunks: 2, FailedChunks: 1, Fallbacks: 1, Verdict: flagged})

	agg.Add(&File{Path: "c/gone.py", Language: "python", Chunks: 4, Excluded: true, ExcludeReason: "reconstruction failed"})
	return agg
}

func TestAggregator_Summary(t *testing.T) {
	s := sampleAggregator().Summary()

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 3, s.TotalFiles)
	assert.Equal(t, 1, s.PassedFiles)
	assert.Equal(t, 1, s.FlaggedFiles)
	assert.Equal(t, 1, s.ExcludedFiles)
	assert.Equal(t, 9, s.TotalChunks)
	assert.Equal(t, 1, s.FailedChunks)
}

func TestAggregator_FilesSortedByPath(t *testing.T) {
	files := sampleAggregator().Files()
	require.Len(t, files, 3)
	assert.Equal(t, "a/flagged.py", files[0].Path)
	assert.Equal(t, "b/ok.py", files[1].Path)
	assert.Equal(t, "c/gone.py", files[2].Path)
}

func TestFile_Passed(t *testing.T) {
	assert.True(t, (&File{Verdict: passedVerdict("x")}).Passed())
	assert.False(t, (&File{Excluded: true, Verdict: passedVerdict("x")}).Passed())
	assert.False(t, (&File{}).Passed(), "no verdict means not validated")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "TRANSLATION_REPORT.json")
	require.NoError(t, sampleAggregator().WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var r struct {
		Summary *Summary `json:"summary"`
		Files   []*File  `json:"files"`
	}
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, 3, r.Summary.TotalFiles)
	require.Len(t, r.Files, 3)
	assert.Equal(t, "reconstruction failed", r.Files[2].ExcludeReason)
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TRANSLATION_REPORT.md")
	require.NoError(t, sampleAggregator().WriteMarkdown(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "# Translation Report")
	assert.Contains(t, md, "Russian -> English")
	assert.Contains(t, md, "a/flagged.py")
	assert.Contains(t, md, "c/gone.py")
	assert.Contains(t, md, "reconstruction failed")
	assert.NotContains(t, md, "### `b/ok.py`", "passing files stay out of the attention section")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	sampleAggregator().WriteTable(&buf)

	out := buf.String()
	assert.Contains(t, out, "b/ok.py")
	assert.Contains(t, out, "excluded")
	assert.Contains(t, out, "flagged")
}
