// Package config loads the process configuration of the cache from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mbeoliero/learncache"
	"github.com/mbeoliero/learncache/tier"
	"gopkg.in/yaml.v2"
)

type Configuration struct {
	Redis        RedisConfig        `yaml:"redis"`
	Categories   []CategoryConfig   `yaml:"categories"`
	Tier         TierConfig         `yaml:"tier"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Admin        AdminConfig        `yaml:"admin"`
	LogLevel     string             `yaml:"log_level"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	ScanCount int64  `yaml:"scan_count"`
}

type CategoryConfig struct {
	Name           string        `yaml:"name"`
	TTL            time.Duration `yaml:"ttl"`
	MaxMemoryItems int           `yaml:"max_memory_items"`
	Warmup         bool          `yaml:"warmup"`
}

type TierConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

type SubscriptionConfig struct {
	DSN string `yaml:"dsn"`
}

type AdminConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// NewDefault returns the reference configuration: a local redis and the five default categories.
func NewDefault() *Configuration {
	defaults := learncache.DefaultCategories()
	categories := make([]CategoryConfig, 0, len(defaults))
	for _, c := range defaults {
		categories = append(categories, CategoryConfig{
			Name:           c.Name,
			TTL:            c.TTL,
			MaxMemoryItems: c.MaxMemoryItems,
			Warmup:         c.Warmup,
		})
	}

	return &Configuration{
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			ScanCount: 500,
		},
		Categories: categories,
		Tier: TierConfig{
			TTL:       tier.DefaultTTL,
			KeyPrefix: tier.DefaultKeyPrefix,
		},
		Admin: AdminConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		LogLevel: "INFO",
	}
}

// LoadFromFile overlays the YAML file on c. A categories list in the file replaces the
// default table entirely.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("LEARNCACHE_REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("LEARNCACHE_REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("LEARNCACHE_REDIS_DB"); val != "" {
		db, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid LEARNCACHE_REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if val := os.Getenv("LEARNCACHE_REDIS_KEY_PREFIX"); val != "" {
		c.Redis.KeyPrefix = val
	}
	if val := os.Getenv("LEARNCACHE_TIER_TTL"); val != "" {
		ttl, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid LEARNCACHE_TIER_TTL: %w", err)
		}
		c.Tier.TTL = ttl
	}
	if val := os.Getenv("LEARNCACHE_SUBSCRIPTION_DSN"); val != "" {
		c.Subscription.DSN = val
	}
	if val := os.Getenv("LEARNCACHE_ADMIN_ADDR"); val != "" {
		c.Admin.Addr = val
	}
	if val := os.Getenv("LEARNCACHE_LOG_LEVEL"); val != "" {
		c.LogLevel = strings.ToUpper(val)
	}
	return nil
}

func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Configuration) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty")
	}
	if c.Redis.ScanCount < 0 {
		return fmt.Errorf("redis.scan_count must not be negative")
	}
	if c.Tier.TTL <= 0 {
		return fmt.Errorf("tier.ttl must be greater than 0")
	}
	if c.Tier.KeyPrefix == "" {
		return fmt.Errorf("tier.key_prefix must not be empty")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	// category keys and tier records share the redis keyspace
	for _, cc := range c.Categories {
		ns := cc.Name + ":"
		if strings.HasPrefix(c.Tier.KeyPrefix, ns) || strings.HasPrefix(ns, c.Tier.KeyPrefix) {
			return fmt.Errorf("category %q overlaps tier.key_prefix %q", cc.Name, c.Tier.KeyPrefix)
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for _, level := range validLogLevels {
		if strings.ToUpper(c.LogLevel) == level {
			return nil
		}
	}
	return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
		c.LogLevel, strings.Join(validLogLevels, ", "))
}

// Policy builds the category table described by the configuration.
func (c *Configuration) Policy() (*learncache.Policy, error) {
	categories := make([]learncache.Category, 0, len(c.Categories))
	for _, cc := range c.Categories {
		categories = append(categories, learncache.Category{
			Name:           cc.Name,
			TTL:            cc.TTL,
			MaxMemoryItems: cc.MaxMemoryItems,
			Warmup:         cc.Warmup,
		})
	}
	return learncache.NewPolicy(categories...)
}
