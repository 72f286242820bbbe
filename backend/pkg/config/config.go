package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "gedgraph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Remote relative service
	RelativesAPIURL   string
	RelativesAPIToken string
	FetchTimeout      time.Duration
	FetchRetries      int
	FetchConcurrency  int // Per-id fetch fan-out when the service has no batch call
	FetchCacheSize    int

	// Crawl
	CrawlRadius         int
	CrawlEdges          string // Comma separated: parents,children,siblings,spouses
	AncestorDepth       int
	SynthesizeChildless bool

	// Persistence
	StorePath          string // YAML store literal
	ConflictPolicyPath string // YAML field -> always|never

	// Neo4j (optional mirror)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		RelativesAPIURL:     getEnv("RELATIVES_API_URL", "http://localhost:9000"),
		RelativesAPIToken:   getEnv("RELATIVES_API_TOKEN", ""),
		FetchTimeout:        getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:        getEnvInt("FETCH_RETRIES", 3),
		FetchConcurrency:    getEnvInt("FETCH_CONCURRENCY", 4),
		FetchCacheSize:      getEnvInt("FETCH_CACHE_SIZE", 512),
		CrawlRadius:         getEnvInt("CRAWL_RADIUS", 2),
		CrawlEdges:          getEnv("CRAWL_EDGES", "parents,children,siblings,spouses"),
		AncestorDepth:       getEnvInt("ANCESTOR_DEPTH", 4),
		SynthesizeChildless: getEnvBool("SYNTHESIZE_CHILDLESS", true),
		StorePath:           getEnv("STORE_PATH", "crowd.yaml"),
		ConflictPolicyPath:  getEnv("CONFLICT_POLICY_PATH", ""),
		Neo4jURI:            getEnv("NEO4J_URI", ""),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.RelativesAPIURL == "" {
		return apperrors.NewConfigMissingRequired("RELATIVES_API_URL")
	}
	if c.CrawlRadius < 1 {
		return apperrors.NewConfigValidationFailed("CRAWL_RADIUS", "must be at least 1")
	}
	if c.AncestorDepth < 1 {
		return apperrors.NewConfigValidationFailed("ANCESTOR_DEPTH", "must be at least 1")
	}
	if c.FetchConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("FETCH_CONCURRENCY", "must be at least 1")
	}
	if c.Neo4jURI != "" && c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	return nil
}

// Edges returns the configured crawl edge names, trimmed and lowercased
func (c *Config) Edges() []string {
	var edges []string
	for _, part := range strings.Split(c.CrawlEdges, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			edges = append(edges, part)
		}
	}
	return edges
}

// GraphEnabled reports whether the Neo4j mirror is configured
func (c *Config) GraphEnabled() bool {
	return c.Neo4jURI != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
