package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Telegram TelegramConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr      string
	PublicURL string // base URL for document hand-off links; empty disables them
}

// LLMConfig holds hosted-model configuration
type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// TelegramConfig holds bot configuration
type TelegramConfig struct {
	BotToken string
	APIBase  string
	Timeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("GOOGLE_API_KEY", "")
	}
	return &Config{
		Server: ServerConfig{
			Addr:      ":" + getEnv("PORT", "8080"),
			PublicURL: getEnv("PUBLIC_URL", ""),
		},
		LLM: LLMConfig{
			APIKey:      apiKey,
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			APIBase:  getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
			Timeout:  getEnvAsDuration("TELEGRAM_TIMEOUT", 30*time.Second),
		},
	}
}

// AIConfigured reports whether a model credential is present. Presence only;
// the key is never validated against the provider.
func (c *Config) AIConfigured() bool {
	return c.LLM.APIKey != ""
}

// BotConfigured reports whether the Telegram bot token is present.
func (c *Config) BotConfigured() bool {
	return c.Telegram.BotToken != ""
}

// Warnings lists degraded features. Missing credentials disable features
// rather than failing startup.
func (c *Config) Warnings() []string {
	var out []string
	if !c.AIConfigured() {
		out = append(out, "GEMINI_API_KEY is not set; AI parsing and modification are disabled")
	}
	if !c.BotConfigured() {
		out = append(out, "TELEGRAM_BOT_TOKEN is not set; the Telegram bot is disabled")
	}
	if c.Server.PublicURL == "" {
		out = append(out, "PUBLIC_URL is not set; print-view links will not be generated")
	}
	return out
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
