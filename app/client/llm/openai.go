package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sofiabot/app/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var _ Responder = (*OpenAI)(nil)

// OpenAI talks to any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	model   llms.Model
	options []llms.CallOption
}

func NewOpenAI(cfg config.LLM) (*OpenAI, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(createHTTPClient(cfg)),
		openai.WithCallback(LogCallbackHandler{}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	var callOptions []llms.CallOption
	if cfg.Temperature > 0 {
		callOptions = append(callOptions, llms.WithTemperature(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(cfg.MaxTokens))
	}

	return &OpenAI{
		model:   model,
		options: callOptions,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, o.options...)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	result = strings.TrimSpace(result)
	if result == "" {
		return "", errors.New("no chat completion found")
	}

	return result, nil
}
