package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	domainconfig "papergraph/domain/config"
	"papergraph/infrastructure/ai"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required"`
	Environment   string `yaml:"environment" validate:"oneof=development staging production test"`

	// Paper list loaded on startup and on every rebuild
	PapersPath string `yaml:"papers_path"`

	// ConfigFile is the YAML file this configuration was overlaid with
	ConfigFile string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Provider settings; an empty API key selects the heuristic analyser
	Provider ai.Config `yaml:"provider"`

	// Cache backend for concept analyses and embeddings
	Cache CacheConfig `yaml:"cache"`

	// Tracing
	TracingEndpoint   string  `yaml:"tracing_endpoint"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate" validate:"gte=0,lte=1"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`
	WatchFiles    bool     `yaml:"watch_files"`

	// Requests per minute per client on provider-backed endpoints; 0 disables
	QueryRateLimit int `yaml:"query_rate_limit" validate:"gte=0"`

	// Upper bound for a rebuild started over HTTP; it outlives the request
	RebuildTimeout time.Duration `yaml:"rebuild_timeout" validate:"gt=0"`

	// Business rules
	Domain *domainconfig.DomainConfig `yaml:"domain" validate:"required"`
}

// CacheConfig selects and configures the cache backend
type CacheConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=memory redis"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
	KeyPrefix     string `yaml:"key_prefix"`
}

var validate = validator.New()

// LoadConfig builds the configuration in three layers: defaults for the
// environment, the YAML file at path (or CONFIG_FILE when path is empty),
// then environment variables.
func LoadConfig(path string) (*Config, error) {
	environment := getEnv("ENVIRONMENT", "development")
	cfg := defaults(environment)

	if path == "" {
		path = getEnv("CONFIG_FILE", "")
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig without a config file
func Load() (*Config, error) {
	return LoadConfig("")
}

func defaults(environment string) *Config {
	return &Config{
		ServerAddress:     ":8080",
		Environment:       environment,
		LogLevel:          "info",
		Provider:          ai.DefaultConfig(),
		Cache:             CacheConfig{Backend: "memory", KeyPrefix: "papergraph:"},
		TracingSampleRate: 1.0,
		EnableMetrics:     true,
		EnableCORS:        true,
		CORSOrigins:       []string{"*"},
		WatchFiles:        environment == "development",
		QueryRateLimit:    60,
		RebuildTimeout:    10 * time.Minute,
		Domain:            domainconfig.LoadDomainConfig(environment),
	}
}

// overlayFile decodes the YAML file over the current values; keys missing
// from the file keep their defaults.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Domain == nil {
		c.Domain = domainconfig.LoadDomainConfig(c.Environment)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.PapersPath = getEnv("PAPERS_PATH", c.PapersPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	// Provider
	c.Provider.APIKey = getEnv("OPENAI_API_KEY", c.Provider.APIKey)
	c.Provider.BaseURL = getEnv("OPENAI_BASE_URL", c.Provider.BaseURL)
	c.Provider.ChatModel = getEnv("OPENAI_CHAT_MODEL", c.Provider.ChatModel)
	c.Provider.EmbeddingModel = getEnv("OPENAI_EMBEDDING_MODEL", c.Provider.EmbeddingModel)
	c.Provider.EmbeddingDimensions = getEnvInt("OPENAI_EMBEDDING_DIMENSIONS", c.Provider.EmbeddingDimensions)

	// Cache
	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getEnvInt("REDIS_DB", c.Cache.RedisDB)
	c.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", c.Cache.KeyPrefix)

	// Tracing and features
	c.TracingEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.TracingEndpoint)
	c.TracingSampleRate = getEnvFloat("TRACING_SAMPLE_RATE", c.TracingSampleRate)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.WatchFiles = getEnvBool("WATCH_FILES", c.WatchFiles)
	c.QueryRateLimit = getEnvInt("QUERY_RATE_LIMIT", c.QueryRateLimit)
	c.RebuildTimeout = getEnvDuration("REBUILD_TIMEOUT", c.RebuildTimeout)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	// Domain overrides most often tuned per deployment
	c.Domain.SimilarityThreshold = getEnvFloat("SIMILARITY_THRESHOLD", c.Domain.SimilarityThreshold)
	c.Domain.MaxConnections = getEnvInt("MAX_CONNECTIONS", c.Domain.MaxConnections)
	c.Domain.AnalysisBatchSize = getEnvInt("ANALYSIS_BATCH_SIZE", c.Domain.AnalysisBatchSize)
}

// Validate checks struct rules and the domain's cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Domain.Validate(); err != nil {
		return fmt.Errorf("invalid domain configuration: %w", err)
	}
	return nil
}

// ProviderEnabled reports whether an external provider is configured
func (c *Config) ProviderEnabled() bool {
	return c.Provider.APIKey != ""
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
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

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
