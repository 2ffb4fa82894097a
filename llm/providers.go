package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/tailored-agentic-units/agentgraph/config"
)

// Providers lists the provider names accepted by New.
var Providers = []string{"openai", "ollama", "deepseek", "ark"}

// New creates a chat model for cfg.
func New(ctx context.Context, cfg config.ModelConfig) (ChatModel, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: provider %s", ErrEmptyModelName, cfg.Provider)
	}

	var (
		m   model.BaseChatModel
		err error
	)

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		oc := &openai.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}
		if cfg.MaxTokens > 0 {
			maxTokens := cfg.MaxTokens
			oc.MaxTokens = &maxTokens
		}
		m, err = openai.NewChatModel(ctx, oc)
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		m, err = ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
		})
	case "deepseek":
		dc := &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}
		if cfg.Temperature != nil {
			dc.Temperature = *cfg.Temperature
		}
		m, err = deepseek.NewChatModel(ctx, dc)
	case "ark":
		ac := &ark.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}
		if cfg.MaxTokens > 0 {
			maxTokens := cfg.MaxTokens
			ac.MaxTokens = &maxTokens
		}
		m, err = ark.NewChatModel(ctx, ac)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s model %s: %w", cfg.Provider, cfg.Model, err)
	}
	return NewEinoModel(m), nil
}

// ParseSpec reads a "provider:model" string such as "openai:gpt-4o-mini"
// into a ModelConfig. A spec without a provider defaults to openai. The
// model part may itself contain colons ("ollama:qwen3:8b").
func ParseSpec(spec string) (config.ModelConfig, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return config.ModelConfig{}, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}

	provider, name, found := strings.Cut(spec, ":")
	if !found {
		return config.ModelConfig{Provider: "openai", Model: spec}, nil
	}

	provider = strings.ToLower(provider)
	known := false
	for _, p := range Providers {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		return config.ModelConfig{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if name == "" {
		return config.ModelConfig{}, fmt.Errorf("%w: %q has no model name", ErrInvalidSpec, spec)
	}
	return config.ModelConfig{Provider: provider, Model: name}, nil
}
