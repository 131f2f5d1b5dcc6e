package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rsclarke/k6rec/internal/policy"
)

// Environment variables read by FromEnv.
const (
	EnvExport           = "K6_EXPORT"
	EnvOutDir           = "K6_OUT_DIR"
	EnvEnvDir           = "K6_ENV_DIR"
	EnvWriteEnvFile     = "K6_WRITE_ENV_FILE"
	EnvUpdateEnvExample = "K6_UPDATE_ENV_EXAMPLE"
	EnvPolicy           = "K6_REDACTION_POLICY"
	EnvPrefix           = "K6_ENV_PREFIX"
	EnvArchive          = "K6_ARCHIVE_DB"
)

type Config struct {
	Enabled          bool
	OutDir           string
	EnvDir           string
	WriteEnvFile     bool
	UpdateEnvExample bool
	PolicyPath       string
	EnvPrefix        string
	ArchivePath      string
}

func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		OutDir:           filepath.Join(cwd, "perf", "k6"),
		EnvDir:           cwd,
		WriteEnvFile:     true,
		UpdateEnvExample: true,
		EnvPrefix:        policy.DefaultEnvPrefix,
	}
}

// FromEnv resolves the configuration once from the process environment.
func FromEnv() *Config {
	cfg := Default()
	cfg.Enabled = truthy(os.Getenv(EnvExport))
	cfg.OutDir = getEnv(EnvOutDir, cfg.OutDir)
	cfg.EnvDir = getEnv(EnvEnvDir, cfg.EnvDir)
	cfg.WriteEnvFile = getEnvBool(EnvWriteEnvFile, cfg.WriteEnvFile)
	cfg.UpdateEnvExample = getEnvBool(EnvUpdateEnvExample, cfg.UpdateEnvExample)
	cfg.PolicyPath = os.Getenv(EnvPolicy)
	cfg.EnvPrefix = getEnv(EnvPrefix, cfg.EnvPrefix)
	cfg.ArchivePath = os.Getenv(EnvArchive)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return truthy(v)
}

func truthy(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return !strings.EqualFold(v, "no") && !strings.EqualFold(v, "off")
}
