// Package logging builds the zap logger shared by the application.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// Encoding is json or console.
	Encoding string `yaml:"encoding" json:"encoding"`
	// Sampling drops repeated entries after the first hundred per second.
	Sampling bool `yaml:"sampling" json:"sampling"`
}

func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Encoding: "console",
	}
}

func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.Encoding {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("log encoding must be json or console, got %q", c.Encoding)
}

// New builds a logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := zapcore.ParseLevel(cfg.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Encoding == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	if cfg.Sampling {
		config.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	}

	return config.Build()
}
