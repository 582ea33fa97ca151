// Package report collects per-file and per-chunk outcomes into a run
// summary and renders it as JSON, Markdown and a terminal table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/transllm/pkg/types"
)

// File is the per-file outcome recorded by the runner.
type File struct {
	Path     string `json:"path"`
	Language string `json:"language"`

	Chunks       int `json:"chunks"`
	FailedChunks int `json:"failed_chunks"`
	Fallbacks    int `json:"fallbacks"`
	Anomalies    int `json:"anomalies"`

	// Excluded marks a file left out of the output tree entirely
	// (reconstruction failure or cancellation mid-file).
	Excluded      bool   `json:"excluded"`
	ExcludeReason string `json:"exclude_reason,omitempty"`

	Verdict *types.Verdict `json:"verdict,omitempty"`
}

// Passed reports whether the file was produced and fully validated.
func (f *File) Passed() bool {
	return !f.Excluded && f.Verdict != nil && f.Verdict.Passed()
}

// Summary aggregates the whole run.
type Summary struct {
	RunID      string `json:"run_id"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	SourceLang string `json:"source_language"`
	TargetLang string `json:"target_language"`

	TotalFiles    int `json:"total_files"`
	PassedFiles   int `json:"passed_files"`
	FlaggedFiles  int `json:"flagged_files"`
	ExcludedFiles int `json:"excluded_files"`

	TotalChunks  int `json:"total_chunks"`
	FailedChunks int `json:"failed_chunks"`
	Anomalies    int `json:"anomalies"`

	Duration string `json:"duration"`
}

// Aggregator collects file outcomes as they complete. Safe for
// concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	files []*File

	RunID      string
	Provider   string
	Model      string
	SourceLang string
	TargetLang string
	Started    time.Time
}

// NewAggregator creates an aggregator for one run.
func NewAggregator(runID string) *Aggregator {
	return &Aggregator{
		RunID:   runID,
		Started: time.Now(),
	}
}

// Add records one file outcome.
func (a *Aggregator) Add(f *File) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, f)
}

// Files returns the recorded outcomes sorted by path.
func (a *Aggregator) Files() []*File {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*File, len(a.files))
	copy(out, a.files)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Summary computes the run summary from the recorded outcomes.
func (a *Aggregator) Summary() *Summary {
	s := &Summary{
		RunID:      a.RunID,
		Provider:   a.Provider,
		Model:      a.Model,
		SourceLang: a.SourceLang,
		TargetLang: a.TargetLang,
		Duration:   time.Since(a.Started).Round(time.Millisecond).String(),
	}
	for _, f := range a.Files() {
		s.TotalFiles++
		s.TotalChunks += f.Chunks
		s.FailedChunks += f.FailedChunks
		s.Anomalies += f.Anomalies
		switch {
		case f.Excluded:
			s.ExcludedFiles++
		case f.Passed():
			s.PassedFiles++
		default:
			s.FlaggedFiles++
		}
	}
	return s
}

type jsonReport struct {
	Summary *Summary `json:"summary"`
	Files   []*File  `json:"files"`
}

// WriteJSON writes the machine-readable report.
func (a *Aggregator) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(jsonReport{Summary: a.Summary(), Files: a.Files()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// WriteMarkdown writes the human-readable report.
func (a *Aggregator) WriteMarkdown(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	s := a.Summary()
	var b strings.Builder

	fmt.Fprintf(&b, "# Translation Report\n\n")
	fmt.Fprintf(&b, "- **Run:** %s\n", s.RunID)
	fmt.Fprintf(&b, "- **Provider:** %s (%s)\n", s.Provider, s.Model)
	fmt.Fprintf(&b, "- **Languages:** %s -> %s\n", s.SourceLang, s.TargetLang)
	fmt.Fprintf(&b, "- **Files:** %d total, %d passed, %d flagged, %d excluded\n",
		s.TotalFiles, s.PassedFiles, s.FlaggedFiles, s.ExcludedFiles)
	fmt.Fprintf(&b, "- **Chunks:** %d total, %d failed, %d marker anomalies\n",
		s.TotalChunks, s.FailedChunks, s.Anomalies)
	fmt.Fprintf(&b, "- **Duration:** %s\n", s.Duration)

	flagged := make([]*File, 0)
	for _, f := range a.Files() {
		if !f.Passed() {
			flagged = append(flagged, f)
		}
	}

	if len(flagged) > 0 {
		fmt.Fprintf(&b, "\n## Files needing attention\n\n")
		for _, f := range flagged {
			fmt.Fprintf(&b, "### `%s`\n\n", f.Path)
			if f.Excluded {
				fmt.Fprintf(&b, "- excluded from output: %s\n", f.ExcludeReason)
			}
			if f.Verdict != nil {
				for _, d := range f.Verdict.Failures() {
					fmt.Fprintf(&b, "- %s\n", d)
				}
			}
			if f.FailedChunks > 0 {
				fmt.Fprintf(&b, "- %d chunk(s) kept their original text after backend failure\n", f.FailedChunks)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n---\nGenerated %s\n", time.Now().Format("2006-01-02 15:04:05"))

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteTable renders the summary table to w.
func (a *Aggregator) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Chunks", "Failed", "Anomalies", "Status"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, f := range a.Files() {
		status := "ok"
		switch {
		case f.Excluded:
			status = "excluded"
		case !f.Passed():
			status = "flagged"
		}
		table.Append([]string{
			f.Path,
			fmt.Sprintf("%d", f.Chunks),
			fmt.Sprintf("%d", f.FailedChunks),
			fmt.Sprintf("%d", f.Anomalies),
			status,
		})
	}

	table.Render()
}
