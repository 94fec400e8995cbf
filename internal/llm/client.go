package llm

import (
	"context"
	"errors"
)

// ErrModelUnavailable wraps network and timeout failures from any provider.
// The pipeline treats it as fatal for the current round.
var ErrModelUnavailable = errors.New("model unavailable")

// Options tune a single generation call.
type Options struct {
	Model        string
	Temperature  float64
	SystemPrompt string
}

// Client is the model-inference collaborator. Implementations must honor
// context cancellation and surface transport failures as ErrModelUnavailable.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Func adapts a plain function to Client. Used by tests and embedders.
type Func func(ctx context.Context, prompt string, opts Options) (string, error)

func (f Func) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
