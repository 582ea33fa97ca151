package translator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dshills/transllm/pkg/types"
)

// Request carries the run-level translation parameters forwarded with
// every chunk. Instructions are passed to the backend verbatim.
type Request struct {
	SourceLang   string
	TargetLang   string
	Instructions string
	Model        string // optional: override the provider default
}

// Backend is the translation capability consumed by the dispatcher.
// Implementations classify failures via types.BackendError so the
// dispatcher can decide whether to retry.
type Backend interface {
	// Translate returns the translated text for the given input.
	Translate(ctx context.Context, text string, req Request) (string, error)

	// Provider returns the provider name.
	Provider() string

	// Model returns the default model name.
	Model() string

	// Close releases any resources held by the backend.
	Close() error
}

// ValidateInput rejects empty text before it reaches a provider.
func ValidateInput(text string) error {
	if text == "" {
		return types.ErrEmptyText
	}
	return nil
}

// CacheKey computes the content-addressed cache key for a translation:
// identical text under identical parameters always translates the same.
func CacheKey(text string, req Request) string {
	h := sha256.New()
	for _, part := range []string{text, req.SourceLang, req.TargetLang, req.Model, req.Instructions} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
