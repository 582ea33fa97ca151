package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dshills/transllm/pkg/types"
)

// Provider configuration
const (
	ProviderOpenAI   = "openai"
	ProviderGroq     = "groq"
	ProviderIdentity = "identity"

	// Default models
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGroqModel   = "llama-3.3-70b-versatile"

	// Endpoints (both providers speak the chat-completions format)
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	groqEndpoint   = "https://api.groq.com/openai/v1/chat/completions"

	// Environment variables for API keys
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGroqAPIKey   = "GROQ_API_KEY"

	maxOutputTokens = 4096
	clientTimeout   = 120 * time.Second
)

// ChatProvider implements Backend against an OpenAI-compatible
// chat-completions API. OpenAI and Groq share the wire format and
// differ only in endpoint, default model and credentials.
type ChatProvider struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates a backend that talks to the OpenAI API.
func NewOpenAIProvider(apiKey, model string) (*ChatProvider, error) {
	return newChatProvider(ProviderOpenAI, openAIEndpoint, apiKey, model, DefaultOpenAIModel)
}

// NewGroqProvider creates a backend that talks to the Groq API.
func NewGroqProvider(apiKey, model string) (*ChatProvider, error) {
	return newChatProvider(ProviderGroq, groqEndpoint, apiKey, model, DefaultGroqModel)
}

func newChatProvider(name, endpoint, apiKey, model, defaultModel string) (*ChatProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s API key not set", types.ErrNoProviderEnabled, name)
	}
	if model == "" {
		model = defaultModel
	}
	return &ChatProvider{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *ChatProvider) Translate(ctx context.Context, text string, req Request) (string, error) {
	if err := ValidateInput(text); err != nil {
		return "", types.NewPermanentError(err)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req)},
			{Role: "user", Content: userPrompt(text)},
		},
		Temperature: 0.0, // determinism over creativity
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", types.NewPermanentError(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", types.NewPermanentError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Network-level failures are worth retrying.
		return "", types.NewTransientError(fmt.Errorf("api call: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
		return "", classifyStatus(resp.StatusCode, err)
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", types.NewTransientError(fmt.Errorf("decode response: %w", err))
	}
	if apiResp.Error != nil {
		return "", types.NewPermanentError(errors.New(apiResp.Error.Message))
	}
	if len(apiResp.Choices) == 0 {
		return "", types.NewTransientError(errors.New("no choices returned"))
	}

	return apiResp.Choices[0].Message.Content, nil
}

// classifyStatus maps an HTTP status to a retry class. Rate limits and
// server errors are transient; auth and request errors are permanent.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewTransientError(err)
	case status >= 500:
		return types.NewTransientError(err)
	default:
		return types.NewPermanentError(err)
	}
}

func (p *ChatProvider) Provider() string {
	return p.name
}

func (p *ChatProvider) Model() string {
	return p.model
}

func (p *ChatProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// IdentityProvider echoes its input unchanged. Used for dry runs and
// for exercising the pipeline in tests without a network dependency.
type IdentityProvider struct{}

// NewIdentityProvider creates an echo backend.
func NewIdentityProvider() *IdentityProvider {
	return &IdentityProvider{}
}

func (p *IdentityProvider) Translate(ctx context.Context, text string, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateInput(text); err != nil {
		return "", types.NewPermanentError(err)
	}
	return text, nil
}

func (p *IdentityProvider) Provider() string { return ProviderIdentity }
func (p *IdentityProvider) Model() string    { return "echo" }
func (p *IdentityProvider) Close() error     { return nil }
