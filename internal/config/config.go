package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dwhswenson/annotated-trajectories/internal/eval"
)

// #region config
// Config holds the annotraj settings read from the environment.
type Config struct {
	DBPath    string `env:"ANNOTRAJ_DB"         envDefault:"annotraj.db"`
	LogLevel  string `env:"ANNOTRAJ_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"ANNOTRAJ_LOG_FORMAT" envDefault:"text"`

	ClassifierAddr        string        `env:"ANNOTRAJ_CLASSIFIER_ADDR"`
	ClassifierTimeout     time.Duration `env:"ANNOTRAJ_CLASSIFIER_TIMEOUT"     envDefault:"30s"`
	ClassifierConcurrency int           `env:"ANNOTRAJ_CLASSIFIER_CONCURRENCY" envDefault:"4"`

	MinPrecision float64 `env:"ANNOTRAJ_MIN_PRECISION" envDefault:"0"`
	MinRecall    float64 `env:"ANNOTRAJ_MIN_RECALL"    envDefault:"0"`
	MaxConflicts int     `env:"ANNOTRAJ_MAX_CONFLICTS" envDefault:"0"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ClassifierConcurrency < 1 {
		return Config{}, fmt.Errorf("parse env: ANNOTRAJ_CLASSIFIER_CONCURRENCY must be positive, got %d", cfg.ClassifierConcurrency)
	}
	return cfg, nil
}

// EvalConfig returns the acceptance thresholds.
func (c Config) EvalConfig() eval.EvalConfig {
	return eval.EvalConfig{
		MinPrecision: c.MinPrecision,
		MinRecall:    c.MinRecall,
		MaxConflicts: c.MaxConflicts,
	}
}

// #endregion config

// #region logger
// NewLogger builds a slog logger writing to w. format is "text" or "json".
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", format)
	}
}

// #endregion logger
