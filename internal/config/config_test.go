package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{Database: DatabaseConfig{Host: "localhost"}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 8080 || cfg.Database.Port != 5432 {
		t.Errorf("ports = %d/%d", cfg.HTTP.Port, cfg.Database.Port)
	}
	if cfg.Embedding.Provider != ProviderOllama || cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Embedding.BaseURL != "http://localhost:11434/v1" || cfg.Embedding.Dimensions != 768 {
		t.Errorf("ollama defaults = %+v", cfg.Embedding)
	}
	if cfg.Embedding.QueryInstruction != "search_query: " {
		t.Errorf("query instruction = %q", cfg.Embedding.QueryInstruction)
	}
	if cfg.Splitter.ChunkSize != 100 || cfg.Splitter.ChunkOverlap != 10 {
		t.Errorf("splitter = %+v", cfg.Splitter)
	}
	if cfg.HTTP.HealthTimeout() != 3*time.Second {
		t.Errorf("health timeout = %v", cfg.HTTP.HealthTimeout())
	}
	if cfg.Ingestion.Persistence != PersistAtomic {
		t.Errorf("persistence = %q", cfg.Ingestion.Persistence)
	}
	if cfg.Index.DefaultPageSize != 20 || cfg.Index.MaxPageSize != 100 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestApplyDefaults_OpenAI(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{Provider: ProviderOpenAI}}
	cfg.ApplyDefaults()
	if cfg.Embedding.Model != "text-embedding-3-large" || cfg.Embedding.Dimensions != 1536 {
		t.Errorf("openai defaults = %+v", cfg.Embedding)
	}
	if cfg.Embedding.DocumentInstruction != "" {
		t.Error("openai takes no instruction prefix")
	}
}

func TestApplyDefaults_ExplicitChunkSizeKeepsZeroOverlap(t *testing.T) {
	cfg := Config{Splitter: SplitterConfig{ChunkSize: 50}}
	cfg.ApplyDefaults()
	if cfg.Splitter.ChunkOverlap != 0 {
		t.Errorf("overlap = %d", cfg.Splitter.ChunkOverlap)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"no database", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }, "embedding.dimensions"},
		{"overlap too big", func(c *Config) { c.Splitter.ChunkOverlap = 100 }, "splitter.chunk_overlap"},
		{"negative overlap", func(c *Config) { c.Splitter.ChunkOverlap = -1 }, "splitter.chunk_overlap"},
		{"unknown policy", func(c *Config) { c.Ingestion.Persistence = "sometimes" }, "ingestion.persistence"},
		{"cache without addrs", func(c *Config) { c.Cache.Enabled = true }, "cache.addrs"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestValidate_DSNIsEnough(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	cfg.Database.DSN = "postgres://u:p@db/docs"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCSEARCH_TEST_HOST", "db.internal")

	got := string(expandEnvVars([]byte("host: ${DOCSEARCH_TEST_HOST}\nuser: ${DOCSEARCH_TEST_UNSET:-app}\nkey: ${DOCSEARCH_TEST_UNSET}")))
	want := "host: db.internal\nuser: app\nkey: "
	if got != want {
		t.Errorf("expandEnvVars = %q, want %q", got, want)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("DOCSEARCH_TEST_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(`
http:
  port: 9090
database:
  host: localhost
  password: ${DOCSEARCH_TEST_PASSWORD}
embedding:
  provider: mock
  dimensions: 16
ingestion:
  persistence: best_effort
splitter:
  separators: ["\n", "\n\n", "", " "]
cache:
  enabled: true
  addrs: ["localhost:6379"]
  ttl_sec: 60
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Database.Password != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Embedding.Dimensions != 16 || cfg.Embedding.Model != "hash" {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Cache.TTL().Seconds() != 60 {
		t.Errorf("ttl = %v", cfg.Cache.TTL())
	}
	if cfg.Ingestion.Persistence != PersistBestEffort {
		t.Errorf("persistence = %q", cfg.Ingestion.Persistence)
	}
	if seps := cfg.Splitter.Separators; len(seps) != 4 || seps[0] != "\n" || seps[2] != "" {
		t.Errorf("separators = %q", seps)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("embedding:\n  provider: nope\ndatabase:\n  host: x\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("database:\n  dsn: postgres://x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.DSN != "postgres://x" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("DOCSEARCH_DB_PASSWORD", "x")
	t.Setenv("OPENAI_API_KEY", "x")
	for _, env := range []string{"local", "prod"} {
		if _, err := Load(env); err != nil {
			t.Errorf("Load(%q): %v", env, err)
		}
	}

	prod, err := Load("prod")
	if err != nil {
		t.Fatalf("Load(prod): %v", err)
	}
	if prod.HTTP.HealthTimeout() != 5*time.Second {
		t.Errorf("prod health timeout = %v", prod.HTTP.HealthTimeout())
	}
}
