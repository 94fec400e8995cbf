package llm

import (
	"context"
	"fmt"
	"strings"
)

type ClientOptions struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewClient builds the configured provider client. Local OpenAI-compatible
// servers select the "openai" provider with a BaseURL.
func NewClient(ctx context.Context, opts ClientOptions) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("gemini api key is required (set WRITEWME_API_KEY)")
		}
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	case "openai", "local":
		return NewOpenAIClient(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", opts.Provider)
	}
}
