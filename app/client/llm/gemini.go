package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sofiabot/app/config"

	"google.golang.org/genai"
)

var _ Responder = (*Gemini)(nil)

type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGemini(ctx context.Context, cfg config.LLM) (*Gemini, error) {
	if cfg.Token == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.Token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: createHTTPClient(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	var generateConfig *genai.GenerateContentConfig
	if cfg.Temperature > 0 || cfg.MaxTokens > 0 {
		generateConfig = &genai.GenerateContentConfig{}
		if cfg.Temperature > 0 {
			generateConfig.Temperature = genai.Ptr(float32(cfg.Temperature))
		}
		if cfg.MaxTokens > 0 {
			generateConfig.MaxOutputTokens = int32(cfg.MaxTokens)
		}
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
		config: generateConfig,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("GenAI returned an empty response")
	}

	return text, nil
}
