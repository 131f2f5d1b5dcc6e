// Package logging provides structured logging configuration.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration options.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// New creates a new configured zap logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	var zcfg zap.Config
	if strings.ToLower(cfg.Format) == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// stdout belongs to the test runner and the CLI's own output
	zcfg.OutputPaths = []string{"stderr"}

	logger, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", "k6rec")), nil
}

// Sync flushes any buffered log entries.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Level:  getenv("K6REC_LOG_LEVEL", "warn"),
		Format: getenv("K6REC_LOG_FORMAT", "console"),
	}
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Component returns a zap field for the component name.
func Component(name string) zap.Field { return zap.String("component", name) }

// Method returns a zap field for an HTTP method.
func Method(method string) zap.Field { return zap.String("method", method) }

// URL returns a zap field for a request URL.
func URL(url string) zap.Field { return zap.String("url", url) }

// Status returns a zap field for an HTTP status code.
func Status(status int) zap.Field { return zap.Int("status", status) }

// Slug returns a zap field for a recording slug.
func Slug(slug string) zap.Field { return zap.String("slug", slug) }

// File returns a zap field for a written artifact path.
func File(path string) zap.Field { return zap.String("file", path) }

// EnvName returns a zap field for an env name. Never log the value.
func EnvName(name string) zap.Field { return zap.String("env_name", name) }

// PolicySource returns a zap field for where the redaction policy came from.
func PolicySource(src string) zap.Field { return zap.String("policy_source", src) }

// Session returns a zap field for an archived session ID.
func Session(id string) zap.Field { return zap.String("session", id) }
