package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-processor/internal/config"
)

const topProductsPrompt = "What is %s's top products? Answer in a short paragraph of plain text."

// Client answers the scraper's follow-up question with a chat model. It is
// the fallback when no search engine is configured.
type Client struct {
	llm llms.Model
}

func New(cfg *config.LLMConfig) (*Client, error) {
	log.Debug().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("Creating llm client")
	var llm llms.Model
	var err error
	switch cfg.Provider {
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %v", cfg.Provider, err)
	}
	return &Client{llm: llm}, nil
}

// Summarize asks the model about subject's top products.
func (c *Client) Summarize(ctx context.Context, subject string) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(topProductsPrompt, subject)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
