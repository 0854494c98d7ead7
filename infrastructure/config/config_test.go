package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "papergraph/domain/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papergraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.False(t, cfg.ProviderEnabled())
	assert.False(t, cfg.WatchFiles)
	assert.Equal(t, 10*time.Minute, cfg.RebuildTimeout)
	assert.Equal(t, domainconfig.DefaultDomainConfig(), cfg.Domain)
}

func TestLoadConfigLayers(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	path := writeConfig(t, `
server_address: ":9090"
log_level: debug
papers_path: /data/papers.json
rebuild_timeout: 2m
provider:
  chat_model: gpt-4o
domain:
  similarity_threshold: 0.4
  analysis_batch_delay: 50ms
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_CONNECTIONS", "42")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REBUILD_TIMEOUT", "90s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/data/papers.json", cfg.PapersPath)
	assert.True(t, cfg.ProviderEnabled())
	assert.Equal(t, "gpt-4o", cfg.Provider.ChatModel)
	// keys missing from the file keep their defaults
	assert.Equal(t, "text-embedding-3-small", cfg.Provider.EmbeddingModel)
	assert.Equal(t, 0.4, cfg.Domain.SimilarityThreshold)
	assert.Equal(t, 50*time.Millisecond, cfg.Domain.AnalysisBatchDelay)
	assert.Equal(t, 0.3, cfg.Domain.DomainBonus)
	// environment wins over the file
	assert.Equal(t, 42, cfg.Domain.MaxConnections)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 90*time.Second, cfg.RebuildTimeout)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("CONFIG_FILE", writeConfig(t, "log_level: warn\n"))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "unknown log level", content: "log_level: loud\n"},
		{name: "redis without address", content: "cache:\n  backend: redis\n"},
		{name: "unknown cache backend", env: map[string]string{"CACHE_BACKEND": "memcached"}},
		{name: "threshold above one", content: "domain:\n  similarity_threshold: 1.5\n"},
		{name: "niche above mature", content: "domain:\n  niche_degree_threshold: 9\n"},
		{name: "unknown centrality", content: "domain:\n  centrality_algorithm: pagerank\n"},
		{name: "malformed yaml", content: "domain: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.content != "" {
				path = writeConfig(t, tt.content)
			}

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentSelectsDomainDefaults(t *testing.T) {
	tests := []struct {
		env  string
		want *domainconfig.DomainConfig
	}{
		{"production", domainconfig.ProductionDomainConfig()},
		{"development", domainconfig.DevelopmentDomainConfig()},
		{"staging", domainconfig.DefaultDomainConfig()},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			cfg, err := LoadConfig("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Domain)
			assert.Equal(t, tt.env == "production", cfg.IsProduction())
			assert.Equal(t, tt.env == "development", cfg.IsDevelopment())
		})
	}
}
