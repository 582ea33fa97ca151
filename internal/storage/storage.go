// Package storage persists the translation cache in SQLite.
//
// The cache is keyed by the content hash of a chunk's text and its
// translation parameters, so repeated runs over a project (and
// identical chunks across files) hit the cache instead of the backend.
// Two interchangeable SQLite drivers are selected at build time; see
// build_cgo.go and build_purego.go.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested entry doesn't exist.
	ErrNotFound = errors.New("not found")
)

// Translation is one cached translation entry.
type Translation struct {
	Key       string
	Provider  string
	Model     string
	Text      string
	CreatedAt time.Time
	LastUsed  time.Time
	UseCount  int64
}

// Stats summarizes cache contents.
type Stats struct {
	Entries   int64
	TotalUses int64
}

// TranslationStore is the persistent cache interface consumed by the
// translator's caching backend.
type TranslationStore interface {
	// GetTranslation returns the cached text for a key with a hit flag.
	// A hit bumps the entry's last-used timestamp and use count.
	GetTranslation(ctx context.Context, key string) (string, bool, error)

	// PutTranslation stores or refreshes an entry.
	PutTranslation(ctx context.Context, key, provider, model, text string) error

	// GetEntry returns the full entry for inspection.
	GetEntry(ctx context.Context, key string) (*Translation, error)

	// Prune removes entries not used since the cutoff, returning the
	// number deleted.
	Prune(ctx context.Context, unusedSince time.Time) (int64, error)

	// Stats reports entry and usage counts.
	Stats(ctx context.Context) (*Stats, error)

	// Close closes the underlying database.
	Close() error
}
