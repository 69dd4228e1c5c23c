package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Analysis struct {
		Extensions []string `yaml:"extensions"`
		Workers    int      `yaml:"workers"`
		LogLevel   string   `yaml:"log_level"`
	} `yaml:"analysis"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Analysis.Extensions = []string{".csol"}
	cfg.Analysis.Workers = 4
	cfg.Analysis.LogLevel = "info"
	cfg.Storage.DB = "pyrometer.db"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := validateYAML(file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("PYROMETER_DB"); db != "" {
		cfg.Storage.DB = db
	}
	if level := os.Getenv("PYROMETER_LOG_LEVEL"); level != "" {
		cfg.Analysis.LogLevel = level
	}
	if workers := os.Getenv("PYROMETER_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid PYROMETER_WORKERS %q: %w", workers, err)
		}
		cfg.Analysis.Workers = n
	}

	if cfg.Analysis.Workers < 1 {
		return nil, fmt.Errorf("analysis.workers must be positive, got %d", cfg.Analysis.Workers)
	}
	if len(cfg.Analysis.Extensions) == 0 {
		return nil, errors.New("analysis.extensions is empty")
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level parses analysis.log_level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Analysis.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid analysis.log_level %q: %w", c.Analysis.LogLevel, err)
	}
	return l, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
