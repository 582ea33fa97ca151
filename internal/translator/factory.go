package translator

import (
	"fmt"
	"os"
	"strings"

	"github.com/dshills/transllm/pkg/types"
)

// Config holds backend configuration.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	CacheSize int

	// Store, when non-nil, adds persistent translation caching on top
	// of the in-memory cache.
	Store Store
}

// New creates a backend with explicit configuration. When a cache size
// or store is configured the backend is wrapped in a caching layer.
func New(cfg Config) (Backend, error) {
	backend, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 || cfg.Store != nil {
		return NewCachingBackend(backend, cfg.CacheSize, cfg.Store), nil
	}
	return backend, nil
}

func newProvider(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv(EnvOpenAIAPIKey)
		}
		return NewOpenAIProvider(key, cfg.Model)
	case ProviderGroq:
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv(EnvGroqAPIKey)
		}
		return NewGroqProvider(key, cfg.Model)
	case ProviderIdentity:
		return NewIdentityProvider(), nil
	case "":
		return nil, types.ErrNoProviderEnabled
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedProvider, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be selected from the
// current environment when none is configured explicitly.
func DetectProvider() string {
	if p := os.Getenv("TRANSLLM_PROVIDER"); p != "" {
		return strings.ToLower(p)
	}
	if os.Getenv(EnvGroqAPIKey) != "" {
		return ProviderGroq
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ""
}
