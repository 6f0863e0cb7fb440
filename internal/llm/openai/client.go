package openai

import (
	"context"
	"net/http"

	"github.com/futurelens/futurelens/internal/config"
	"github.com/futurelens/futurelens/internal/llm/chat"
	"github.com/futurelens/futurelens/pkg/models"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

// Generator implements models.TextGenerator using OpenAI.
type Generator struct {
	client chat.Client
}

func NewGenerator(cfg config.LLMConfig) *Generator {
	return &Generator{
		client: chat.Client{
			BaseURL:     completionsURL,
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		},
	}
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	return g.client.Complete(ctx, req)
}

var _ models.TextGenerator = (*Generator)(nil)
