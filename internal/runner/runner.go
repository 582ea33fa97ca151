// Package runner coordinates the translation pipeline:
// discover -> chunk -> dispatch -> reconstruct -> validate -> write.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/transllm/internal/chunker"
	"github.com/dshills/transllm/internal/config"
	"github.com/dshills/transllm/internal/dispatcher"
	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/internal/reconstructor"
	"github.com/dshills/transllm/internal/report"
	"github.com/dshills/transllm/internal/translator"
	"github.com/dshills/transllm/internal/validator"
	"github.com/dshills/transllm/pkg/types"
)

// fileWorkers bounds how many files are in the pipeline at once. The
// backend call cap is separate and global (the shared semaphore).
const fileWorkers = 4

// Runner executes a translation run over a project tree.
type Runner struct {
	backend translator.Backend
	cfg     *config.Config
}

// Statistics summarizes a completed run.
type Statistics struct {
	TotalFiles      int
	TranslatedFiles int
	ExcludedFiles   int
	CopiedFiles     int
	TotalChunks     int
	FailedChunks    int
	Anomalies       int
	Duration        time.Duration
	ErrorMessages   []string
}

// Analysis is the pre-run project analysis (the analyze command).
type Analysis struct {
	TotalFiles        int
	TranslatableFiles int
	FileTypes         map[string]int
	EstimatedChunks   int
	Files             []AnalyzedFile
}

// AnalyzedFile is one translatable file found during analysis.
type AnalyzedFile struct {
	RelPath string
	Lines   int
	Chunks  int
}

// New creates a runner.
func New(backend translator.Backend, cfg *config.Config) *Runner {
	return &Runner{backend: backend, cfg: cfg}
}

// Analyze walks the project and estimates the translation workload
// without calling the backend.
func (r *Runner) Analyze(root string) (*Analysis, error) {
	a := &Analysis{FileTypes: make(map[string]int)}

	err := r.walk(root, func(path, relPath string, translatable bool) error {
		a.TotalFiles++
		if !translatable {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", relPath, err)
		}

		lines := types.CountLines(string(content))
		chunks := (lines + r.cfg.ChunkLines - 1) / r.cfg.ChunkLines
		if lines == 0 {
			chunks = 0
		}

		a.TranslatableFiles++
		a.FileTypes[strings.ToLower(filepath.Ext(path))]++
		a.EstimatedChunks += chunks
		a.Files = append(a.Files, AnalyzedFile{RelPath: relPath, Lines: lines, Chunks: chunks})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Run translates the project at root into outDir (root + "_translated"
// when empty). Individual file failures never abort the run; the run
// completes and reports on every file. Only explicit cancellation
// stops it early.
func (r *Runner) Run(ctx context.Context, root, outDir string, onProgress dispatcher.ProgressFunc) (*Statistics, *report.Aggregator, error) {
	start := time.Now()
	if outDir == "" {
		outDir = strings.TrimRight(root, string(os.PathSeparator)) + "_translated"
	}

	stats := &Statistics{}
	agg := report.NewAggregator(uuid.NewString())
	agg.Provider = r.backend.Provider()
	agg.Model = r.backend.Model()
	agg.SourceLang = r.cfg.SourceLang
	agg.TargetLang = r.cfg.TargetLang

	// Phase 1: read and chunk every translatable file up front so the
	// total chunk count is exact for progress reporting. One generator
	// for the whole run keeps marker IDs run-unique.
	gen := marker.NewGenerator()
	work, copyList, err := r.prepare(root, gen)
	if err != nil {
		return nil, nil, err
	}

	totalChunks := 0
	for _, w := range work {
		totalChunks += len(w.chunks)
	}
	stats.TotalFiles = len(work)
	stats.TotalChunks = totalChunks

	var chunksDone atomic.Int32
	progress := func(_, _ int) {
		if onProgress != nil {
			onProgress(int(chunksDone.Add(1)), totalChunks)
		}
	}

	// Phase 2: translate files concurrently under one global backend
	// call cap.
	sem := semaphore.NewWeighted(int64(r.cfg.MaxConcurrency))
	req := translator.Request{
		SourceLang:   r.cfg.SourceLang,
		TargetLang:   r.cfg.TargetLang,
		Instructions: r.cfg.Instructions,
		Model:        r.cfg.Model,
	}
	dcfg := dispatcher.Config{
		MaxConcurrency: r.cfg.MaxConcurrency,
		ChunkTimeout:   r.cfg.ChunkTimeout(),
		Retry: dispatcher.RetryConfig{
			MaxAttempts: r.cfg.Retry.MaxAttempts,
			BaseDelay:   time.Duration(r.cfg.Retry.BaseDelayMs) * time.Millisecond,
			MaxDelay:    time.Duration(r.cfg.Retry.MaxDelayMs) * time.Millisecond,
			Multiplier:  r.cfg.Retry.Multiplier,
		},
		OnProgress: progress,
		Sem:        sem,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fileWorkers)

	results := make([]*report.File, len(work))
	for i, w := range work {
		i, w := i, w
		g.Go(func() error {
			results[i] = r.translateFile(gctx, w, outDir, req, dcfg)
			return nil
		})
	}
	// Worker funcs never return errors; per-file failures land in the
	// report instead.
	_ = g.Wait()

	for _, f := range results {
		agg.Add(f)
		stats.FailedChunks += f.FailedChunks
		stats.Anomalies += f.Anomalies
		if f.Excluded {
			stats.ExcludedFiles++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %s", f.Path, f.ExcludeReason))
		} else {
			stats.TranslatedFiles++
		}
	}

	// Phase 3: copy non-translatable files and write reports. Skipped
	// on cancellation: a half-copied tree helps nobody.
	if ctx.Err() == nil {
		copied, err := r.copyUntranslated(root, outDir, copyList)
		if err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
		}
		stats.CopiedFiles = copied

		if err := agg.WriteJSON(filepath.Join(outDir, "TRANSLATION_REPORT.json")); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
		}
		if err := agg.WriteMarkdown(filepath.Join(outDir, "TRANSLATION_REPORT.md")); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
		}
	}

	stats.Duration = time.Since(start)
	return stats, agg, ctx.Err()
}

// fileWork is one file prepared for dispatch.
type fileWork struct {
	file   *types.SourceFile
	chunks []*types.Chunk
}

func (r *Runner) prepare(root string, gen *marker.Generator) (work []*fileWork, copyList []string, err error) {
	err = r.walk(root, func(path, relPath string, translatable bool) error {
		if !translatable {
			copyList = append(copyList, relPath)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", relPath, err)
		}

		file := types.NewSourceFile(path, relPath, string(content))
		chunks, err := chunker.Chunk(gen, file, r.cfg.ChunkLines)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", relPath, err)
		}
		if len(chunks) == 0 {
			// Empty file: nothing to translate, copy verbatim.
			copyList = append(copyList, relPath)
			return nil
		}

		work = append(work, &fileWork{file: file, chunks: chunks})
		return nil
	})
	return work, copyList, err
}

// translateFile runs one file through dispatch, reconstruction,
// validation and output. Failures are recorded, never propagated.
func (r *Runner) translateFile(ctx context.Context, w *fileWork, outDir string, req translator.Request, dcfg dispatcher.Config) *report.File {
	f := &report.File{
		Path:     w.file.RelPath,
		Language: string(w.file.Language),
		Chunks:   len(w.chunks),
	}

	results := dispatcher.Dispatch(ctx, w.chunks, r.backend, req, dcfg)
	for i := range results {
		if results[i].Failed {
			f.FailedChunks++
		}
	}

	rec, err := reconstructor.Reconstruct(w.file, w.chunks, results)
	if err != nil {
		f.Excluded = true
		f.ExcludeReason = err.Error()
		return f
	}
	f.Fallbacks = rec.Fallbacks
	f.Anomalies = rec.Anomalies

	if ctx.Err() != nil {
		// Cancelled mid-file: every un-dispatched chunk fell back to
		// its original text. Exclude rather than write a half-machine,
		// half-original file.
		f.Excluded = true
		f.ExcludeReason = "run cancelled before file completed"
		return f
	}

	f.Verdict = validator.Validate(w.file, rec, r.cfg.LineTolerance)

	dst := filepath.Join(outDir, w.file.RelPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		f.Excluded = true
		f.ExcludeReason = err.Error()
		return f
	}
	if err := os.WriteFile(dst, []byte(rec.Content), 0o644); err != nil {
		f.Excluded = true
		f.ExcludeReason = err.Error()
	}

	return f
}

// walk visits every regular file under root, skipping excluded
// directories, and reports whether each file is translatable under the
// configured extension allow-list.
func (r *Runner) walk(root string, fn func(path, relPath string, translatable bool) error) error {
	excluded := make(map[string]bool, len(r.cfg.ExcludeDirs))
	for _, d := range r.cfg.ExcludeDirs {
		excluded[d] = true
	}
	excludedFiles := make(map[string]bool, len(r.cfg.ExcludeFiles))
	for _, f := range r.cfg.ExcludeFiles {
		excludedFiles[f] = true
	}
	allowed := make(map[string]bool, len(r.cfg.Extensions))
	for _, ext := range r.cfg.Extensions {
		allowed[strings.ToLower(ext)] = true
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if excluded[info.Name()] || strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		translatable := allowed[strings.ToLower(filepath.Ext(path))] && !excludedFiles[info.Name()]
		return fn(path, relPath, translatable)
	})
}

// copyUntranslated mirrors non-translatable files into the output tree.
func (r *Runner) copyUntranslated(root, outDir string, relPaths []string) (int, error) {
	copied := 0
	for _, rel := range relPaths {
		src := filepath.Join(root, rel)
		dst := filepath.Join(outDir, rel)
		if err := copyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copy %s: %w", rel, err)
		}
		copied++
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
