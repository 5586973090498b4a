package config

import (
	"os"
	"strconv"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Server
	ServerPort  string
	LogLevel    string
	MaxFileSize int64

	// Pipeline
	SizeBudgetTokens    int
	MaxRetries          int
	RetryBackoffBaseMs  int
	DispatchConcurrency int
	RequestTimeoutMs    int
	PrimaryProvider     string
	SecondaryProvider   string
	OCRMinConfidence    float64
	OCRMinCharThreshold int

	// Providers
	GCPProjectID  string
	GCPLocation   string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Persistence
	SupabaseURL string
	SupabaseKey string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *AppConfig {
	return &AppConfig{
		ServerPort:  getEnvOrDefault("PORT", "8080"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize: getEnvInt64OrDefault("MAX_FILE_SIZE", 20*1024*1024),

		SizeBudgetTokens:    getEnvIntOrDefault("SIZE_BUDGET_TOKENS", 3000),
		MaxRetries:          getEnvIntOrDefault("MAX_RETRIES", 3),
		RetryBackoffBaseMs:  getEnvIntOrDefault("RETRY_BACKOFF_BASE_MS", 250),
		DispatchConcurrency: getEnvIntOrDefault("DISPATCH_CONCURRENCY", 4),
		RequestTimeoutMs:    getEnvIntOrDefault("REQUEST_TIMEOUT_MS", 30000),
		PrimaryProvider:     getEnvOrDefault("PRIMARY_PROVIDER", "gemini"),
		SecondaryProvider:   getEnvOrDefault("SECONDARY_PROVIDER", ""),
		OCRMinConfidence:    getEnvFloatOrDefault("OCR_MIN_CONFIDENCE", 0.5),
		OCRMinCharThreshold: getEnvIntOrDefault("OCR_MIN_CHAR_THRESHOLD", 32),

		GCPProjectID:  getEnvOrDefault("GCP_PROJECT_ID", ""),
		GCPLocation:   getEnvOrDefault("GCP_LOCATION", "us-central1"),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),

		SupabaseURL: getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey: getEnvOrDefault("SUPABASE_ANON_KEY", ""),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the log level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum accepted upload size in bytes
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetSizeBudgetTokens returns the per-chunk token budget
func (c *AppConfig) GetSizeBudgetTokens() int {
	return c.SizeBudgetTokens
}

// GetMaxRetries returns how many retries follow a failed provider attempt
func (c *AppConfig) GetMaxRetries() int {
	return c.MaxRetries
}

// GetRetryBackoffBaseMs returns the initial retry backoff in milliseconds
func (c *AppConfig) GetRetryBackoffBaseMs() int {
	return c.RetryBackoffBaseMs
}

// GetDispatchConcurrency returns the chunk dispatch parallelism
func (c *AppConfig) GetDispatchConcurrency() int {
	return c.DispatchConcurrency
}

// GetRequestTimeoutMs returns the per-attempt provider timeout in milliseconds
func (c *AppConfig) GetRequestTimeoutMs() int {
	return c.RequestTimeoutMs
}

// GetPrimaryProvider returns the primary provider name
func (c *AppConfig) GetPrimaryProvider() string {
	return c.PrimaryProvider
}

// GetSecondaryProvider returns the fallback provider name, empty when none
func (c *AppConfig) GetSecondaryProvider() string {
	return c.SecondaryProvider
}

// GetOCRMinConfidence returns the confidence floor for OCR text
func (c *AppConfig) GetOCRMinConfidence() float64 {
	return c.OCRMinConfidence
}

// GetOCRMinCharThreshold returns the page character count below which OCR runs
func (c *AppConfig) GetOCRMinCharThreshold() int {
	return c.OCRMinCharThreshold
}

// GetGCPProjectID returns the GCP project id
func (c *AppConfig) GetGCPProjectID() string {
	return c.GCPProjectID
}

// GetGCPLocation returns the GCP region
func (c *AppConfig) GetGCPLocation() string {
	return c.GCPLocation
}

// GetGeminiModel returns the Gemini model name
func (c *AppConfig) GetGeminiModel() string {
	return c.GeminiModel
}

// GetOpenAIAPIKey returns the OpenAI API key
func (c *AppConfig) GetOpenAIAPIKey() string {
	return c.OpenAIAPIKey
}

// GetOpenAIBaseURL returns the OpenAI base URL override
func (c *AppConfig) GetOpenAIBaseURL() string {
	return c.OpenAIBaseURL
}

// GetOpenAIModel returns the OpenAI model name
func (c *AppConfig) GetOpenAIModel() string {
	return c.OpenAIModel
}

// GetSupabaseURL returns the Supabase project URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault gets environment variable as int or returns default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64OrDefault gets environment variable as int64 or returns default
func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloatOrDefault gets environment variable as float or returns default
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
