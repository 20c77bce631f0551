package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/emberfall/async"
)

// Config holds the settings of a process running an async runtime.
type Config struct {
	Backend         string        `env:"ASYNC_BACKEND" yaml:"backend"`
	LogLevel        string        `env:"ASYNC_LOG_LEVEL" yaml:"log_level"`
	LogFormat       string        `env:"ASYNC_LOG_FORMAT" yaml:"log_format"`
	ShutdownTimeout time.Duration `env:"ASYNC_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Backend:         async.BackendThreaded,
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load returns the defaults overridden by the environment.
//
// With no envFiles, Load tries the `.env` file of the working directory and
// ignores it if it does not exist. Named envFiles must exist.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFile is like Load but starts from the YAML file at path instead of
// the bare defaults. Settings missing from the file keep their defaults.
func LoadFile(path string, envFiles ...string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Join(ErrReadingFile, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// MustLoad works like Load but panics on failure.
func MustLoad(envFiles ...string) Config {
	cfg, err := Load(envFiles...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func loadEnvFiles(envFiles []string) error {
	if len(envFiles) == 0 {
		// The default .env file is optional.
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFiles...); err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	return nil
}

// applyEnv only touches fields whose variable is set.
func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// Validate checks that every setting has a usable value.
func (c Config) Validate() error {
	switch c.Backend {
	case async.BackendThreaded, async.BackendCooperative:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidShutdownTimeout, c.ShutdownTimeout)
	}
	return nil
}
