package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbeoliero/learncache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.Tier.TTL)
	assert.Equal(t, "user_tier:", cfg.Tier.KeyPrefix)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, learncache.DefaultPolicy().Categories(), p.Categories())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
redis:
  addr: redis:6380
  db: 2
tier:
  ttl: 30s
categories:
  - name: session
    ttl: 15m
    max_memory_items: 100
  - name: lesson
    ttl: 24h
    max_memory_items: 50
    warmup: true
log_level: DEBUG
`), 0o644))

	cfg := NewDefault()
	require.NoError(t, cfg.LoadFromFile(path))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, int64(500), cfg.Redis.ScanCount)
	assert.Equal(t, 30*time.Second, cfg.Tier.TTL)
	assert.Equal(t, "user_tier:", cfg.Tier.KeyPrefix)

	p, err := cfg.Policy()
	require.NoError(t, err)
	require.Len(t, p.Categories(), 2)
	lesson, err := p.Lookup("lesson")
	require.NoError(t, err)
	assert.True(t, lesson.Warmup)
	assert.Equal(t, 50, lesson.MaxMemoryItems)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := NewDefault()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis: [unterminated"), 0o644))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := NewDefault()
	cfg.Redis.Addr = "cache:6379"
	require.NoError(t, cfg.SaveToFile(path))

	loaded := &Configuration{}
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEARNCACHE_REDIS_ADDR", "10.0.0.1:6379")
	t.Setenv("LEARNCACHE_REDIS_DB", "3")
	t.Setenv("LEARNCACHE_TIER_TTL", "45s")
	t.Setenv("LEARNCACHE_LOG_LEVEL", "warn")
	t.Setenv("LEARNCACHE_SUBSCRIPTION_DSN", "postgres://billing@db/billing")

	cfg := NewDefault()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "10.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 45*time.Second, cfg.Tier.TTL)
	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Equal(t, "postgres://billing@db/billing", cfg.Subscription.DSN)

	t.Setenv("LEARNCACHE_TIER_TTL", "soon")
	assert.Error(t, NewDefault().LoadFromEnv())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Configuration){
		"empty redis addr":  func(c *Configuration) { c.Redis.Addr = "" },
		"zero tier ttl":     func(c *Configuration) { c.Tier.TTL = 0 },
		"no categories":     func(c *Configuration) { c.Categories = nil },
		"glob in category":  func(c *Configuration) { c.Categories[0].Name = "sess*" },
		"negative ttl":      func(c *Configuration) { c.Categories[1].TTL = -time.Second },
		"zero memory items": func(c *Configuration) { c.Categories[2].MaxMemoryItems = 0 },
		"bad log level":     func(c *Configuration) { c.LogLevel = "LOUD" },
		"empty tier prefix": func(c *Configuration) { c.Tier.KeyPrefix = "" },
		"tier namespace":    func(c *Configuration) { c.Categories[0].Name = "user_tier" },
		"tier sub-prefix":   func(c *Configuration) { c.Tier.KeyPrefix = c.Categories[1].Name + ":tiers:" },
		"short tier prefix": func(c *Configuration) { c.Tier.KeyPrefix = c.Categories[2].Name[:1] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefault()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
