package geminillm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/rag/llm"
	"github.com/dmendez/archivista/pkg/logger_i"
)

type client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

func New(ctx context.Context, apiKey string, model string) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &client{
		genAi:  c,
		model:  model,
		logger: logger_i.NewLogger("Gemini LLM"),
	}, nil
}

func (c *client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	var system string
	var user strings.Builder
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			system = m.Content
			continue
		}
		if user.Len() > 0 {
			user.WriteString("\n\n")
		}
		user.WriteString(m.Content)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(config.GenTemperature)),
		MaxOutputTokens: int32(config.GenMaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := c.genAi.Models.GenerateContent(ctx, c.model, genai.Text(user.String()), cfg)
	if err != nil {
		c.logger.Error("generation failed", "model", c.model, "error", err)
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return result.Text(), nil
}
