package llm

import (
	"fmt"

	"github.com/futurelens/futurelens/internal/config"
	"github.com/futurelens/futurelens/internal/llm/groq"
	"github.com/futurelens/futurelens/internal/llm/mock"
	"github.com/futurelens/futurelens/internal/llm/openai"
	"github.com/futurelens/futurelens/pkg/models"
)

// NewGenerator constructs the appropriate text-generation backend based on config.
// Called once at server startup.
func NewGenerator(cfg config.LLMConfig) (models.TextGenerator, error) {
	switch cfg.Provider {
	case "groq":
		return groq.NewGenerator(cfg), nil
	case "openai":
		return openai.NewGenerator(cfg), nil
	case "mock":
		return mock.NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: must be one of groq, openai, mock", cfg.Provider)
	}
}
