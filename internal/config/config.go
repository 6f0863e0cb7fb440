package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the FutureLens server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Search   SearchConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type LLMConfig struct {
	Provider    string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
	Groq        GroqConfig
	OpenAI      OpenAIConfig
}

type GroqConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type SearchConfig struct {
	Provider   string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MaxResults int
	Depth      string
	Tavily     TavilyConfig
}

type TavilyConfig struct {
	APIKey string
}

var validLLMProviders = map[string]bool{
	"groq":   true,
	"openai": true,
	"mock":   true,
}

var validSearchProviders = map[string]bool{
	"tavily": true,
	"mock":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("FUTURELENS_PORT", 8080),
			Env:  envString("FUTURELENS_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		LLM: LLMConfig{
			Provider:    envString("LLM_PROVIDER", "groq"),
			Timeout:     envDuration("LLM_TIMEOUT", 60*time.Second),
			MaxRetries:  envInt("LLM_MAX_RETRIES", 5),
			RetryDelay:  envDuration("LLM_RETRY_DELAY", 2*time.Second),
			Temperature: envFloat("LLM_TEMPERATURE", 0.7),
			Groq: GroqConfig{
				APIKey: os.Getenv("GROQ_API_KEY"),
				Model:  envString("GROQ_MODEL", "llama-3.1-8b-instant"),
			},
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
		},
		Search: SearchConfig{
			Provider:   envString("SEARCH_PROVIDER", "tavily"),
			Timeout:    envDuration("SEARCH_TIMEOUT", 60*time.Second),
			MaxRetries: envInt("SEARCH_MAX_RETRIES", 3),
			RetryDelay: envDuration("SEARCH_RETRY_DELAY", time.Second),
			MaxResults: envInt("SEARCH_MAX_RESULTS", 5),
			Depth:      envString("SEARCH_DEPTH", "advanced"),
			Tavily: TavilyConfig{
				APIKey: os.Getenv("TAVILY_API_KEY"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validLLMProviders[c.LLM.Provider] {
		return fmt.Errorf("LLM_PROVIDER must be one of groq, openai, mock; got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "groq" && c.LLM.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required when LLM_PROVIDER is groq")
	}
	if c.LLM.Provider == "openai" && c.LLM.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is openai")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be in [0, 2]; got %v", c.LLM.Temperature)
	}

	if !validSearchProviders[c.Search.Provider] {
		return fmt.Errorf("SEARCH_PROVIDER must be one of tavily, mock; got %q", c.Search.Provider)
	}
	if c.Search.Provider == "tavily" && c.Search.Tavily.APIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is required when SEARCH_PROVIDER is tavily")
	}
	if c.Search.Depth != "basic" && c.Search.Depth != "advanced" {
		return fmt.Errorf("SEARCH_DEPTH must be basic or advanced; got %q", c.Search.Depth)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
