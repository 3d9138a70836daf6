package services

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config keeps runtime settings for the server.
type Config struct {
	Port           string   `toml:"port"`
	DatabasePath   string   `toml:"database_path"`
	StorageKey     string   `toml:"storage_key"`
	JWTSecret      string   `toml:"jwt_secret"`
	LogLevel       string   `toml:"log_level"`
	LogPretty      bool     `toml:"log_pretty"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

const defaultJWTSecret = "smartcalendar-local-secret-change-me"

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		Port:           "3001",
		DatabasePath:   "smartcalendar.db",
		StorageKey:     "smartcalendar:data:v1",
		JWTSecret:      defaultJWTSecret,
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
	}
}

// LoadConfig layers defaults, the TOML file at path (if it exists), the .env
// file at envFile (if it exists) and the process environment, in that order.
func LoadConfig(path, envFile string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := LoadEnv(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	applyEnv(&cfg)

	if cfg.StorageKey == "" {
		return cfg, fmt.Errorf("storage key must not be empty")
	}
	if cfg.Port == "" {
		return cfg, fmt.Errorf("port must not be empty")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_PATH")); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv("STORAGE_KEY")); v != "" {
		cfg.StorageKey = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_PRETTY")); v != "" {
		if pretty, err := strconv.ParseBool(v); err == nil {
			cfg.LogPretty = pretty
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
}

// UsesDefaultSecret reports whether the JWT secret was never configured.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// LoadEnv loads environment variables from a .env file
func LoadEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Variables already in the environment win over the file.
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, value)
	}

	return scanner.Err()
}
