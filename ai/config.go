package ai

import (
	"errors"
	"fmt"
	"strings"
)

// API types understood by the embedding client.
const (
	APITypeOpenAI  = "openai"
	APITypeAzure   = "azure"
	APITypeAzureAD = "azure_ad"
)

// Config holds configuration for the embedding service.
// Credentials are carried here explicitly; nothing is read from the environment.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server,
	// "https://my-resource.openai.azure.com" for Azure.
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// For Azure this is the deployment name.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// APIKey is the token sent to the embedding service.
	// Local OpenAI-compatible servers accept any value.
	// Default: "none"
	APIKey string

	// APIType selects the wire dialect: "openai", "azure" or "azure_ad".
	// Default: "openai"
	APIType string

	// APIVersion is required by Azure deployments and ignored otherwise.
	APIVersion string

	// BatchSize is the maximum number of texts sent in one embedding request.
	// Default: 64
	BatchSize int

	// Dimensions requests a reduced embedding size from models that support it.
	// Zero keeps the model default.
	Dimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the token used to authenticate with the embedding service.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithAPIType sets the API dialect.
func WithAPIType(apiType string) ConfigOption {
	return func(c *Config) {
		c.APIType = apiType
	}
}

// WithAPIVersion sets the API version used by Azure deployments.
func WithAPIVersion(version string) ConfigOption {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithDimensions requests a specific embedding dimension.
func WithDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// DefaultConfig returns a Config with sensible defaults for a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
		APIKey:         "none",
		APIType:        APITypeOpenAI,
		BatchSize:      64,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
//
// Example for Azure:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("https://my-resource.openai.azure.com"),
//	    WithAPIType(ai.APITypeAzure),
//	    WithAPIVersion("2023-05-15"),
//	    WithAPIKey(key),
//	    WithEmbeddingModel("text-embedding-ada-002"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// IsAzure reports whether the config targets an Azure deployment.
func (c *Config) IsAzure() bool {
	return c.APIType == APITypeAzure || c.APIType == APITypeAzureAD
}

// Normalize ensures the configuration is in a canonical form.
// For OpenAI-compatible hosts it adds the /v1 suffix if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc). Azure endpoints are
// left untouched.
func (c *Config) Normalize() {
	c.APIType = strings.ToLower(strings.TrimSpace(c.APIType))
	if c.APIType == "" {
		c.APIType = APITypeOpenAI
	}

	if c.IsAzure() {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		return
	}

	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	switch c.APIType {
	case APITypeOpenAI, APITypeAzure, APITypeAzureAD:
	default:
		return fmt.Errorf("ai config: unknown APIType %q", c.APIType)
	}

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.IsAzure() && c.APIVersion == "" {
		return errors.New("ai config: APIVersion is required for Azure deployments")
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be positive")
	}
	if c.Dimensions < 0 {
		return errors.New("ai config: Dimensions cannot be negative")
	}
	return nil
}
