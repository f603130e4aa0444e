package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the study search service.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Search    SearchConfig    `yaml:"search"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Cache     CacheConfig     `yaml:"cache"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name             string `yaml:"name"`
	Version          string `yaml:"version"`
	Port             int    `yaml:"port" env:"CURATOR_PORT"`
	Debug            bool   `yaml:"debug" env:"CURATOR_DEBUG"`
	MaxSubjectLength int    `yaml:"max_subject_length"`
	TopResults       int    `yaml:"top_results"`
}

// SearchConfig holds search provider configuration.
type SearchConfig struct {
	BaseURL      string        `yaml:"base_url" env:"TAVILY_BASE_URL"`
	APIKey       string        `yaml:"api_key" env:"TAVILY_API_KEY"`
	Timeout      time.Duration `yaml:"timeout" env:"SEARCH_TIMEOUT"`
	MaxResults   int           `yaml:"max_results"`
	SearchDepth  string        `yaml:"search_depth"`
	MinContent   int           `yaml:"min_content"`
}

// SynthesisConfig holds generative model configuration.
type SynthesisConfig struct {
	APIKey      string        `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model       string        `yaml:"model" env:"SYNTHESIS_MODEL"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout" env:"SYNTHESIS_TIMEOUT"`
}

// CacheConfig holds result cache configuration.
type CacheConfig struct {
	Backend string        `yaml:"backend" env:"CACHE_BACKEND"` // memory or redis
	TTL     time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration for the redis cache backend.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// StoreConfig holds the Elasticsearch persistence configuration.
type StoreConfig struct {
	Enabled  bool   `yaml:"enabled" env:"STORE_ENABLED"`
	URL      string `yaml:"url" env:"ELASTICSEARCH_URL"`
	Username string `yaml:"username" env:"ELASTICSEARCH_USERNAME"`
	Password string `yaml:"password" env:"ELASTICSEARCH_PASSWORD"`
	Index    string `yaml:"index"`
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" env:"AUTH_ENABLED"`
	Secret  string `yaml:"secret" env:"JWT_SECRET"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins" env:"CORS_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	cfg, err := load(path, SetDefaults)
	if err != nil {
		return nil, err
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

// SetDefaults applies default values to the config.
func SetDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "study-curator"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "1.0.0"
	}
	if cfg.Service.Port == 0 {
		cfg.Service.Port = 8094
	}
	if cfg.Service.MaxSubjectLength == 0 {
		cfg.Service.MaxSubjectLength = 200
	}
	if cfg.Service.TopResults == 0 {
		cfg.Service.TopResults = 5
	}

	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "https://api.tavily.com"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 12 * time.Second
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 8
	}
	if cfg.Search.SearchDepth == "" {
		cfg.Search.SearchDepth = "basic"
	}
	if cfg.Search.MinContent == 0 {
		cfg.Search.MinContent = 100
	}

	if cfg.Synthesis.Model == "" {
		cfg.Synthesis.Model = "claude-sonnet-4-5"
	}
	if cfg.Synthesis.MaxTokens == 0 {
		cfg.Synthesis.MaxTokens = 4096
	}
	if cfg.Synthesis.Temperature == 0 {
		cfg.Synthesis.Temperature = 0.2
	}
	if cfg.Synthesis.Timeout == 0 {
		cfg.Synthesis.Timeout = 60 * time.Second
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 30 * time.Minute
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = "localhost:6379"
	}

	if cfg.Store.URL == "" {
		cfg.Store.URL = "http://localhost:9200"
	}
	if cfg.Store.Index == "" {
		cfg.Store.Index = "curated_documents"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{Field: "service.port", Message: fmt.Sprintf("invalid port: %d", c.Service.Port)}
	}
	if c.Service.TopResults < 1 {
		return &ValidationError{Field: "service.top_results", Message: "must be greater than 0"}
	}
	if c.Search.BaseURL == "" {
		return &ValidationError{Field: "search.base_url", Message: "is required"}
	}
	if c.Search.SearchDepth != "basic" && c.Search.SearchDepth != "advanced" {
		return &ValidationError{Field: "search.search_depth", Message: "must be basic or advanced"}
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return &ValidationError{Field: "cache.backend", Message: "must be memory or redis"}
	}
	if c.Cache.TTL <= 0 {
		return &ValidationError{Field: "cache.ttl", Message: "must be positive"}
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return &ValidationError{Field: "auth.secret", Message: "is required when auth is enabled"}
	}
	if err := validateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
