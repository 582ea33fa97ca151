// Package dispatcher fans chunk translations out to a backend under an
// explicit concurrency cap and collects results keyed by chunk identity.
//
// Each chunk is translated independently: failure of one never aborts
// its siblings, and a failed chunk degrades to its original text as a
// fallback payload rather than being dropped. The result store is a
// fixed-size slice indexed by chunk ordinal, exactly one writer per
// slot, so no locking is needed.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dshills/transllm/internal/marker"
	"github.com/dshills/transllm/internal/translator"
	"github.com/dshills/transllm/pkg/types"
)

// Default dispatch configuration
const (
	DefaultMaxConcurrency = 10
	DefaultChunkTimeout   = 120 * time.Second

	// Drift guard: a translated chunk whose line count moves further
	// than max(driftAbsLimit, driftFraction * input lines) from the
	// input is reverted to the original text.
	driftAbsLimit = 10
	driftFraction = 0.15
)

// ProgressFunc receives completion updates: completed count and total.
type ProgressFunc func(done, total int)

// Config controls a dispatch run.
type Config struct {
	MaxConcurrency int           // simultaneous in-flight backend calls (default 10)
	ChunkTimeout   time.Duration // per-chunk deadline (default 120s)
	Retry          RetryConfig
	OnProgress     ProgressFunc // optional; called after each chunk resolves

	// Sem, when set, is a shared admission gate so multiple files
	// dispatched concurrently still respect one global cap. When nil a
	// private semaphore of MaxConcurrency is used.
	Sem *semaphore.Weighted
}

// DefaultConfig returns the default dispatch configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		ChunkTimeout:   DefaultChunkTimeout,
		Retry:          DefaultRetryConfig(),
	}
}

// Dispatch translates all chunks through the backend, at most
// cfg.MaxConcurrency in flight at once. It always returns exactly one
// TranslatedChunk per input chunk, in ordinal order; chunks that could
// not be translated carry their original text and a failure flag.
//
// Cancellation stops issuing new backend calls and lets in-flight calls
// drain; chunks never issued come back failed with the context error.
func Dispatch(ctx context.Context, chunks []*types.Chunk, backend translator.Backend, req translator.Request, cfg Config) []types.TranslatedChunk {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = DefaultChunkTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	results := make([]types.TranslatedChunk, len(chunks))
	sem := cfg.Sem
	if sem == nil {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}

	var wg sync.WaitGroup
	var done atomic.Int32
	total := len(chunks)

	for i, chunk := range chunks {
		// Stop issuing new calls once the run is cancelled; in-flight
		// goroutines drain on their own.
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = failedResult(chunk, 0, err)
			continue
		}

		wg.Add(1)
		go func(i int, chunk *types.Chunk) {
			defer wg.Done()
			defer sem.Release(1)

			results[i] = translateChunk(ctx, chunk, backend, req, cfg)

			if cfg.OnProgress != nil {
				cfg.OnProgress(int(done.Add(1)), total)
			}
		}(i, chunk)
	}

	wg.Wait()
	return results
}

// translateChunk runs one chunk through the backend with retry and the
// post-translation drift guard.
func translateChunk(ctx context.Context, chunk *types.Chunk, backend translator.Backend, req translator.Request, cfg Config) types.TranslatedChunk {
	callCtx, cancel := context.WithTimeout(ctx, cfg.ChunkTimeout)
	defer cancel()

	out, attempts, err := retryWithBackoff(callCtx, cfg.Retry, func() (string, error) {
		return backend.Translate(callCtx, chunk.Marked, req)
	})
	if err != nil {
		return failedResult(chunk, attempts, err)
	}

	out = marker.StripFences(out)

	result := types.TranslatedChunk{
		Index:    chunk.Index,
		MarkerID: chunk.MarkerID,
		Text:     out,
		Attempts: attempts,
	}

	// Heavily reformatted output is worse than no translation: revert
	// to the original when the line count drifts too far.
	if drifted(chunk.Marked, out) {
		result.Text = chunk.Marked
		result.Err = "line drift exceeded limit, original kept"
	}

	return result
}

func failedResult(chunk *types.Chunk, attempts int, err error) types.TranslatedChunk {
	return types.TranslatedChunk{
		Index:    chunk.Index,
		MarkerID: chunk.MarkerID,
		Text:     chunk.Marked,
		Failed:   true,
		Attempts: attempts,
		Err:      err.Error(),
	}
}

// drifted reports whether the translated line count moved beyond the
// tolerated window around the input line count.
func drifted(in, out string) bool {
	inLines := types.CountLines(in)
	outLines := types.CountLines(out)

	diff := inLines - outLines
	if diff < 0 {
		diff = -diff
	}

	limit := driftAbsLimit
	if frac := int(float64(inLines) * driftFraction); frac > limit {
		limit = frac
	}
	return diff > limit
}
