package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// Persistence policies, mirrored from usecase/document.
const (
	PersistAtomic     = "atomic"
	PersistBestEffort = "best_effort"
)

// Config holds the docsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Index     IndexConfig     `yaml:"index"`
	Auth      AuthConfig      `yaml:"auth"`
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
	// HealthTimeoutSec bounds each dependency probe behind /health.
	HealthTimeoutSec int `yaml:"health_timeout_sec"`
}

// DatabaseConfig holds Postgres connection settings. DSN wins over the individual fields.
type DatabaseConfig struct {
	DSN                string `yaml:"dsn"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	SlowQueryMs        int    `yaml:"slow_query_ms"`
	ReadinessTimeout   int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the Redis embedding cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"` // 0 = no expiry
}

// EmbeddingConfig holds the embedding provider and model.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // openai, ollama, mock
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	MaxBatchSize        int    `yaml:"max_batch_size"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// SplitterConfig sizes chunks in characters.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	// Separators overrides the split order; empty keeps the splitter default.
	Separators []string `yaml:"separators"`
}

// IngestionConfig controls how documents are stored.
type IngestionConfig struct {
	Persistence   string `yaml:"persistence"` // atomic (default), best_effort
	Concurrency   int    `yaml:"concurrency"`
	BackfillLimit int    `yaml:"backfill_limit"`
}

// IndexConfig holds HNSW, pagination and search limits.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	HNSWEFSearch    int `yaml:"hnsw_ef_search"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	MaxSearchLimit  int `yaml:"max_search_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.HealthTimeoutSec <= 0 {
		c.HTTP.HealthTimeoutSec = 3
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.SlowQueryMs <= 0 {
		c.Database.SlowQueryMs = 200
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.applyEmbeddingDefaults()

	// An explicit chunk_size keeps an omitted overlap at zero.
	if c.Splitter.ChunkSize <= 0 {
		c.Splitter.ChunkSize = 100
		if c.Splitter.ChunkOverlap == 0 {
			c.Splitter.ChunkOverlap = 10
		}
	}

	if c.Ingestion.Persistence == "" {
		c.Ingestion.Persistence = PersistAtomic
	}
	if c.Ingestion.Concurrency <= 0 {
		c.Ingestion.Concurrency = 4
	}
	if c.Ingestion.BackfillLimit <= 0 {
		c.Ingestion.BackfillLimit = 100
	}

	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.DefaultPageSize <= 0 {
		c.Index.DefaultPageSize = 20
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 100
	}
	if c.Index.MaxSearchLimit <= 0 {
		c.Index.MaxSearchLimit = 100
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = ProviderOllama
	}
	switch e.Provider {
	case ProviderOpenAI:
		if e.Model == "" {
			e.Model = "text-embedding-3-large"
		}
		if e.Dimensions == 0 {
			e.Dimensions = 1536
		}
	case ProviderOllama:
		if e.Model == "" {
			e.Model = "nomic-embed-text"
		}
		if e.BaseURL == "" {
			e.BaseURL = "http://localhost:11434/v1"
		}
		if e.Dimensions == 0 {
			e.Dimensions = 768
		}
		if e.DocumentInstruction == "" && e.QueryInstruction == "" {
			e.DocumentInstruction = "search_document: "
			e.QueryInstruction = "search_query: "
		}
	case ProviderMock:
		if e.Model == "" {
			e.Model = "hash"
		}
		if e.Dimensions == 0 {
			e.Dimensions = 768
		}
	}
	if e.MaxBatchSize <= 0 {
		e.MaxBatchSize = 256
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		return errors.New("database.host or database.dsn is required")
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("embedding.provider must be one of openai, ollama, mock, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		return fmt.Errorf("splitter.chunk_overlap (%d) must be in [0, splitter.chunk_size=%d)",
			c.Splitter.ChunkOverlap, c.Splitter.ChunkSize)
	}
	switch c.Ingestion.Persistence {
	case PersistAtomic, PersistBestEffort:
	default:
		return fmt.Errorf("ingestion.persistence must be %q or %q, got %q",
			PersistAtomic, PersistBestEffort, c.Ingestion.Persistence)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return errors.New("cache.addrs is required when cache is enabled")
	}
	return nil
}

// HealthTimeout returns the per-probe health check timeout.
func (h HTTPConfig) HealthTimeout() time.Duration {
	return time.Duration(h.HealthTimeoutSec) * time.Second
}

// ConnMaxLifetime returns the pool connection lifetime.
func (d DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.ConnMaxLifetimeSec) * time.Second
}

// SlowQuery returns the threshold above which statements are logged as slow.
func (d DatabaseConfig) SlowQuery() time.Duration {
	return time.Duration(d.SlowQueryMs) * time.Millisecond
}

// TTL returns the cache entry lifetime; zero means no expiry.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
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

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
