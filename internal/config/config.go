// Package config loads application configuration from a YAML file with
// environment variable overrides, and manages the mutable scrape
// configuration persisted alongside the database.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jobsift/jobsift/internal/logger"
)

const (
	defaultServerPort    = 8060
	defaultServerTimeout = 30 * time.Second
	defaultDatabasePath  = "data/jobsift.db"
	defaultRedisAddress  = "localhost:6379"
	defaultTaskRetention = time.Hour
)

// Config is the application configuration. The scrape configuration is not
// part of it; that lives in a JSON file managed by Store.
type Config struct {
	Debug    bool           `env:"APP_DEBUG" yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logger.Config  `yaml:"logging"`
	Redis    RedisConfig    `yaml:"redis"`
	Tasks    TasksConfig    `yaml:"tasks"`

	// ScrapeConfigPath is where the mutable scrape config JSON lives.
	ScrapeConfigPath string `env:"SCRAPE_CONFIG_PATH" yaml:"scrape_config_path"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `env:"DB_PATH" yaml:"path"`
}

// RedisConfig holds the optional event-publishing connection.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

type TasksConfig struct {
	// Retention is how long terminal scrape tasks stay pollable.
	Retention time.Duration `yaml:"retention"`
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	return nil
}

// Load reads the YAML file at path, applies defaults, then environment
// overrides. A missing file is not an error; defaults plus environment
// apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parse config: %w", unmarshalErr)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	setDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Tasks.Retention == 0 {
		cfg.Tasks.Retention = defaultTaskRetention
	}
	if cfg.ScrapeConfigPath == "" {
		cfg.ScrapeConfigPath = "data/scrape_config.json"
	}
}

// applyEnvOverrides walks the struct and overrides fields carrying an `env`
// tag when the variable is set. Supports string, bool, int and
// time.Duration fields, which covers every tagged field above.
func applyEnvOverrides(cfg *Config) {
	applyEnvToValue(reflect.ValueOf(cfg).Elem())
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyEnvToValue(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyEnvToValue(field)
			continue
		}

		envKey := t.Field(i).Tag.Get("env")
		if envKey == "" {
			continue
		}
		raw, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Bool:
			if b, err := strconv.ParseBool(raw); err == nil {
				field.SetBool(b)
			}
		case reflect.Int, reflect.Int64:
			if field.Type() == reflect.TypeOf(time.Duration(0)) {
				if d, err := time.ParseDuration(raw); err == nil {
					field.SetInt(int64(d))
				}
			} else if n, err := strconv.Atoi(raw); err == nil {
				field.SetInt(int64(n))
			}
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(splitList(raw)))
			}
		default:
		}
	}
}
