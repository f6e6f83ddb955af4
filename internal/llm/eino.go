package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const defaultOllamaURL = "http://localhost:11434"

// EinoConfig configures the eino backend.
type EinoConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

type einoClient struct {
	model model.BaseChatModel
}

// NewEinoChatModel creates an eino chat model for cfg.Provider.
func NewEinoChatModel(ctx context.Context, cfg EinoConfig) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai api key required")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("%w: eino provider %q", ErrUnsupportedBackend, cfg.Provider)
	}
}

// NewEinoClient creates a Client over an eino chat model.
func NewEinoClient(m model.BaseChatModel) Client {
	return &einoClient{model: m}
}

func (c *einoClient) Complete(ctx context.Context, p Prompt) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(p.System),
		schema.UserMessage(p.User),
	}

	resp, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return "", classifyError(fmt.Errorf("generate: %w", err))
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}
