package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Analysis AnalysisConfig
	OCR      OCRConfig
}

// LLMConfig holds model-provider configuration. Provider selects which
// client the command wires ("openai" or "gemini").
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// AnalysisConfig holds the caller identity lists the analyzer needs.
type AnalysisConfig struct {
	CompanyNames   []string
	KnownSuppliers []string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	ModelDir string
	MaxPages int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	apiKeyVar := "OPENAI_API_KEY"
	if provider == "gemini" {
		apiKeyVar = "GEMINI_API_KEY"
	}
	return &Config{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnv("LLM_MODEL", ""),
			APIKey:      getEnv(apiKeyVar, ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Analysis: AnalysisConfig{
			CompanyNames:   getEnvAsList("COMPANY_NAMES"),
			KnownSuppliers: getEnvAsList("KNOWN_SUPPLIERS"),
		},
		OCR: OCRConfig{
			ModelDir: getEnv("OCR_MODEL_DIR", ""),
			MaxPages: getEnvAsInt("OCR_MAX_PAGES", 5),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
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

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "model API key is required", ErrInvalidInput)
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "gemini" {
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be openai or gemini", ErrInvalidInput)
	}
	return nil
}
