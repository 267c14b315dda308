package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "fakegen.config.json"

type Config struct {
	Database   Database   `json:"database" mapstructure:"database"`
	Generation Generation `json:"generation" mapstructure:"generation"`
	CSV        CSV        `json:"csv" mapstructure:"csv"`
	Profiles   Profiles   `json:"profiles" mapstructure:"profiles"`
	Entities   []Entity   `json:"entities" mapstructure:"entities"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Generation struct {
	BatchSize            int     `json:"batch_size" mapstructure:"batch_size"`
	CategoricalThreshold float64 `json:"categorical_threshold" mapstructure:"categorical_threshold"`
	GridSize             int     `json:"grid_size" mapstructure:"grid_size"`
	MaxIDAttempts        int     `json:"max_id_attempts" mapstructure:"max_id_attempts"`
	MaxReferenceRounds   int     `json:"max_reference_rounds" mapstructure:"max_reference_rounds"`
	Timezone             string  `json:"timezone" mapstructure:"timezone"`
	// Seed 0 seeds from the clock.
	Seed     int64 `json:"seed,omitempty" mapstructure:"seed"`
	Strict   bool  `json:"strict,omitempty" mapstructure:"strict"`
	Recreate bool  `json:"recreate,omitempty" mapstructure:"recreate"`
}

type CSV struct {
	Delimiter string `json:"delimiter" mapstructure:"delimiter"`
	Encoding  string `json:"encoding" mapstructure:"encoding"`
}

type Profiles struct {
	Dir         string `json:"dir" mapstructure:"dir"`
	Format      string `json:"format" mapstructure:"format"`
	Store       string `json:"store" mapstructure:"store"`
	RedisURLEnv string `json:"redis_url_env" mapstructure:"redis_url_env"`
	RedisPrefix string `json:"redis_prefix" mapstructure:"redis_prefix"`
}

// Entity is one source to sample and the destination to fill. A zero
// SampleSize reads the whole source.
type Entity struct {
	Source      string          `json:"source" mapstructure:"source"`
	Destination string          `json:"destination" mapstructure:"destination"`
	OutputSize  int             `json:"output_size" mapstructure:"output_size"`
	SampleSize  int             `json:"sample_size,omitempty" mapstructure:"sample_size"`
	Include     []string        `json:"include,omitempty" mapstructure:"include"`
	Profile     string          `json:"profile,omitempty" mapstructure:"profile"`
	Columns     []profile.Hints `json:"columns,omitempty" mapstructure:"columns"`
}

var supportedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3", "mongodb", "csv", "xml"}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Provider == "" {
		c.Database.Provider = "postgresql"
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
	if c.Generation.BatchSize == 0 {
		c.Generation.BatchSize = 100
	}
	if c.Generation.CategoricalThreshold == 0 {
		c.Generation.CategoricalThreshold = profile.DefaultCategoricalThreshold
	}
	if c.Generation.GridSize == 0 {
		c.Generation.GridSize = 1000
	}
	if c.Generation.MaxIDAttempts == 0 {
		c.Generation.MaxIDAttempts = 100
	}
	if c.Generation.MaxReferenceRounds == 0 {
		c.Generation.MaxReferenceRounds = 100
	}
	if c.Generation.Timezone == "" {
		c.Generation.Timezone = "Europe/Moscow"
	}
	if c.CSV.Delimiter == "" {
		c.CSV.Delimiter = ","
	}
	if c.CSV.Encoding == "" {
		c.CSV.Encoding = "utf-8"
	}
	if c.Profiles.Dir == "" {
		c.Profiles.Dir = "profiles"
	}
	if c.Profiles.Format == "" {
		c.Profiles.Format = "json"
	}
	if c.Profiles.Store == "" {
		c.Profiles.Store = "file"
	}
	if c.Profiles.RedisURLEnv == "" {
		c.Profiles.RedisURLEnv = "REDIS_URL"
	}
	if c.Profiles.RedisPrefix == "" {
		c.Profiles.RedisPrefix = "fakegen:profile"
	}
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		if c.Database.Provider == "csv" || c.Database.Provider == "xml" {
			return ".", nil
		}
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) GetRedisURL() (string, error) {
	redisURL := os.Getenv(c.Profiles.RedisURLEnv)
	if redisURL == "" {
		return "", fmt.Errorf("redis URL not found in environment variable %s", c.Profiles.RedisURLEnv)
	}
	return redisURL, nil
}

// Location resolves the zone used for current-moment timestamps.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Generation.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", c.Generation.Timezone, err)
	}
	return loc, nil
}

// Entity finds a configured entity by destination name.
func (c *Config) Entity(destination string) (Entity, bool) {
	for _, e := range c.Entities {
		if e.Destination == destination {
			return e, true
		}
	}
	return Entity{}, false
}

func (c *Config) EnsureDirectories() error {
	if c.Profiles.Store != "file" || c.Profiles.Dir == "" || c.Profiles.Dir == "." {
		return nil
	}
	if err := os.MkdirAll(c.Profiles.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Profiles.Dir, err)
	}
	return nil
}

func (c *Config) Validate() error {
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.Generation.BatchSize <= 0 {
		return fmt.Errorf("generation.batch_size must be positive, got %d", c.Generation.BatchSize)
	}
	if c.Generation.CategoricalThreshold <= 0 || c.Generation.CategoricalThreshold > 1 {
		return fmt.Errorf("generation.categorical_threshold must be in (0, 1], got %v", c.Generation.CategoricalThreshold)
	}
	if c.Generation.GridSize < 2 {
		return fmt.Errorf("generation.grid_size must be at least 2, got %d", c.Generation.GridSize)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := profile.ParseFormat(c.Profiles.Format); err != nil {
		return err
	}
	if c.Profiles.Store != "file" && c.Profiles.Store != "redis" {
		return fmt.Errorf("unsupported profile store: %s. Supported stores: [file redis]", c.Profiles.Store)
	}
	if len([]rune(c.CSV.Delimiter)) != 1 {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", c.CSV.Delimiter)
	}

	seen := make(map[string]bool)
	for i, e := range c.Entities {
		if strings.TrimSpace(e.Destination) == "" {
			return fmt.Errorf("entities[%d]: destination cannot be empty", i)
		}
		if e.Source == "" && e.Profile == "" {
			return fmt.Errorf("entity %s: either source or profile is required", e.Destination)
		}
		if e.OutputSize <= 0 {
			return fmt.Errorf("entity %s: output_size must be positive, got %d", e.Destination, e.OutputSize)
		}
		if e.SampleSize < 0 {
			return fmt.Errorf("entity %s: sample_size cannot be negative", e.Destination)
		}
		if seen[e.Destination] {
			return fmt.Errorf("duplicate destination: %s", e.Destination)
		}
		seen[e.Destination] = true
	}

	return nil
}

// InitializeProject writes a starter configuration file.
func InitializeProject() error {
	if _, err := os.Stat(FileName); err == nil {
		return fmt.Errorf("%s already exists", FileName)
	}

	cfg := DefaultConfig()
	cfg.Entities = []Entity{{
		Source:      "users",
		Destination: "users_fake",
		OutputSize:  1000,
		SampleSize:  500,
		Columns:     []profile.Hints{{Name: "id", Identifier: true}},
	}}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(FileName, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return cfg.EnsureDirectories()
}
