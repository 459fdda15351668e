package config

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	LogLevel    string
	MaxFileSize int64
	// File validation
	AllowedFileTypes []string
	// OpenAI settings
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	DefaultModel       string
	EmbeddingModel     string
	MaxTokens          int
	Temperature        float64
	MaxRetries         int
	RequestTimeout     float64
	GenerateEmbeddings bool
	// PDF pipeline settings
	TesseractPath         string
	EnableOCR             bool
	EnableTableExtraction bool
	EnableLinkExtraction  bool
	DownloadTimeout       float64
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:       getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8000")),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize:      getEnvInt64OrDefault("MAX_FILE_SIZE", 10*1024*1024), // 10MB default
		AllowedFileTypes: []string{".pdf"},

		OpenAIAPIKey:       getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		DefaultModel:       getEnvOrDefault("DEFAULT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:     getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-ada-002"),
		MaxTokens:          getEnvIntOrDefault("MAX_TOKENS", 5000),
		Temperature:        getEnvFloatOrDefault("TEMPERATURE", 0.1),
		MaxRetries:         getEnvIntOrDefault("MAX_RETRIES", 3),
		RequestTimeout:     getEnvFloatOrDefault("REQUEST_TIMEOUT", 30.0),
		GenerateEmbeddings: getEnvBoolOrDefault("GENERATE_EMBEDDINGS", false),

		TesseractPath:         getEnvOrDefault("TESSERACT_PATH", "tesseract"),
		EnableOCR:             getEnvBoolOrDefault("ENABLE_OCR", true),
		EnableTableExtraction: getEnvBoolOrDefault("ENABLE_TABLE_EXTRACTION", true),
		EnableLinkExtraction:  getEnvBoolOrDefault("ENABLE_LINK_EXTRACTION", true),
		DownloadTimeout:       getEnvFloatOrDefault("DOWNLOAD_TIMEOUT", 30.0),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed upload size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetAllowedFileTypes returns the upload extension allow-list
func (c *AppConfig) GetAllowedFileTypes() []string {
	return c.AllowedFileTypes
}

// GetOpenAIConfig returns the language-model provider settings
func (c *AppConfig) GetOpenAIConfig() domain.OpenAIConfig {
	return domain.OpenAIConfig{
		APIKey:             c.OpenAIAPIKey,
		BaseURL:            c.OpenAIBaseURL,
		DefaultModel:       c.DefaultModel,
		EmbeddingModel:     c.EmbeddingModel,
		MaxTokens:          c.MaxTokens,
		Temperature:        c.Temperature,
		MaxRetries:         c.MaxRetries,
		RequestTimeout:     c.RequestTimeout,
		GenerateEmbeddings: c.GenerateEmbeddings,
	}
}

// GetPDFConfig returns the extraction pipeline settings
func (c *AppConfig) GetPDFConfig() domain.PDFProcessingConfig {
	return domain.PDFProcessingConfig{
		TesseractPath:         c.TesseractPath,
		EnableOCR:             c.EnableOCR,
		EnableTableExtraction: c.EnableTableExtraction,
		EnableLinkExtraction:  c.EnableLinkExtraction,
		DownloadTimeout:       c.DownloadTimeout,
	}
}

// Validate checks critical settings at startup. A missing API key or a
// missing tesseract binary (with OCR enabled) is fatal.
func (c *AppConfig) Validate() error {
	if c.OpenAIAPIKey == "" {
		return domain.ErrMissingAPIKey
	}
	if c.EnableOCR {
		if _, err := exec.LookPath(c.TesseractPath); err != nil {
			return fmt.Errorf("%w: %q", domain.ErrOCRUnavailable, c.TesseractPath)
		}
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "t", "yes", "y":
			return true
		case "false", "0", "f", "no", "n":
			return false
		}
	}
	return defaultValue
}
