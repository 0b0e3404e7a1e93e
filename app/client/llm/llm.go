package llm

import (
	"context"
	"fmt"
	"net/http"

	"sofiabot/app/config"

	"github.com/samber/do"
)

// Responder turns a composed prompt into generated text.
type Responder interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ResponderFunc adapts a plain function to Responder.
type ResponderFunc func(ctx context.Context, prompt string) (string, error)

func (f ResponderFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func New(di *do.Injector) (Responder, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.LLM)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.LLM)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func createHTTPClient(cfg config.LLM) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
	}
}
