package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the fusedex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds the shared index namespace settings.
type IndexConfig struct {
	// KeyPrefix is the artifact/index key namespace shared with the
	// external indexing pipeline.
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig holds cache cascade settings.
type CacheConfig struct {
	MemoryCapacity    int `yaml:"memory_capacity"`
	ResultTTLSec      int `yaml:"result_ttl_sec"`
	EmbeddingTTLSec   int `yaml:"embedding_ttl_sec"` // 0 = no expiry
	WriteTimeoutMilli int `yaml:"write_timeout_ms"`
}

// SearchConfig holds fusion and fan-out settings.
type SearchConfig struct {
	RRFK               int     `yaml:"rrf_k"`
	WeightLexical      float64 `yaml:"weight_lexical"`
	WeightVector       float64 `yaml:"weight_vector"`
	TopK               int     `yaml:"top_k"`
	MaxFusionDepth     int     `yaml:"max_fusion_depth"` // 0 = uncapped
	QueryDomain        string  `yaml:"query_domain"`     // text, code, hybrid
	EmbeddingTimeoutMs int     `yaml:"embedding_timeout_ms"`
	LexicalTimeoutMs   int     `yaml:"lexical_timeout_ms"`
	VectorTimeoutMs    int     `yaml:"vector_timeout_ms"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string                 `yaml:"provider"`
	APIKey   string                 `yaml:"api_key"`
	BaseURL  string                 `yaml:"base_url"`
	Models   map[string]ModelConfig `yaml:"models"` // keyed by embedding domain
}

// ModelConfig pins one embedding model to one embedding domain.
type ModelConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "fusedex:"
	}
	if c.Cache.MemoryCapacity <= 0 {
		c.Cache.MemoryCapacity = 4096
	}
	if c.Cache.ResultTTLSec <= 0 {
		c.Cache.ResultTTLSec = 30
	}
	if c.Cache.WriteTimeoutMilli <= 0 {
		c.Cache.WriteTimeoutMilli = 2000
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Search.WeightLexical == 0 {
		c.Search.WeightLexical = 1.0
	}
	if c.Search.WeightVector == 0 {
		c.Search.WeightVector = 1.0
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 50
	}
	if c.Search.QueryDomain == "" {
		c.Search.QueryDomain = "code"
	}
	if c.Search.EmbeddingTimeoutMs <= 0 {
		c.Search.EmbeddingTimeoutMs = 5000
	}
	if c.Search.LexicalTimeoutMs <= 0 {
		c.Search.LexicalTimeoutMs = 2000
	}
	if c.Search.VectorTimeoutMs <= 0 {
		c.Search.VectorTimeoutMs = 2000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Search.QueryDomain {
	case "text", "code", "hybrid":
	default:
		return fmt.Errorf("search.query_domain must be text, code or hybrid, got %q", c.Search.QueryDomain)
	}
	if c.Search.WeightLexical < 0 || c.Search.WeightVector < 0 {
		return fmt.Errorf("fusion weights must be non-negative")
	}
	for name, m := range c.Embedding.Models {
		switch name {
		case "text", "code", "hybrid":
		default:
			return fmt.Errorf("embedding.models key must be an embedding domain, got %q", name)
		}
		if m.Model == "" {
			return fmt.Errorf("embedding.models.%s.model is required", name)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
