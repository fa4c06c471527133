package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/models"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8060, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "data/jobsift.db", cfg.Database.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Tasks.Retention)
	assert.Equal(t, "data/scrape_config.json", cfg.ScrapeConfigPath)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
debug: true
server:
  host: 127.0.0.1
  port: 9090
  cors_origins:
    - https://jobs.example.com
database:
  path: /tmp/test.db
redis:
  enabled: true
  address: redis:6379
tasks:
  retention: 15m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://jobs.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.Retention)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_PATH", "/var/lib/jobsift.db")
	t.Setenv("REDIS_EVENTS_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/var/lib/jobsift.db", cfg.Database.Path)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Server.Host = "0.0.0.0"
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 8060
	assert.Error(t, cfg.Validate())

	cfg.Database.Path = "data/jobsift.db"
	assert.NoError(t, cfg.Validate())
}

func TestScrapeConfigStore_WritesDefaultsOnFirstUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scrape_config.json")

	store, err := NewScrapeConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultScrapeConfig(), store.Get())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestScrapeConfigStore_SetPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrape_config.json")

	store, err := NewScrapeConfigStore(path)
	require.NoError(t, err)

	cfg := models.DefaultScrapeConfig()
	cfg.SearchKeyword = "golang"
	cfg.MaxPages = 2
	cfg.Sources = []string{"justjoin_it", "nofluffjobs"}
	cfg.Schedule = "weekly"
	require.NoError(t, store.Set(cfg))

	reopened, err := NewScrapeConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reopened.Get())
}

func TestScrapeConfigStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrape_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := NewScrapeConfigStore(path)
	assert.Error(t, err)
}
