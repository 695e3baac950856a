// Package config holds the process-wide configuration of chatd. It is built
// once at startup (defaults, then an optional file, then environment, then CLI
// flags) and passed explicitly to the components that need it.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chatd/internal/common/fsutil"
)

// Backend kinds.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

const (
	DefaultAddr         = ":8001"
	DefaultDataDir      = "./data"
	DefaultModel        = "unsloth/Llama-3.2-1B-Instruct"
	DefaultOpenAIURL    = "http://vllm-engine:8000/v1"
	DefaultOllamaURL    = "http://ollama:11434"
	DefaultModelsFile   = "models.json"
	DefaultSQLiteFile   = "chats.db"
	defaultTimeoutSec   = 120
	defaultConnectSec   = 10
	defaultBreakerFails = 5
	defaultBreakerOpen  = 30
	defaultMaxBody      = 1 << 20
	defaultShutdownSec  = 5
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr      string        `json:"addr" yaml:"addr" toml:"addr"`
	DataDir   string        `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	LogLevel  string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string        `json:"log_format" yaml:"log_format" toml:"log_format"`
	Backend   BackendConfig `json:"backend" yaml:"backend" toml:"backend"`
	Models    ModelsConfig  `json:"models" yaml:"models" toml:"models"`
	Storage   StorageConfig `json:"storage" yaml:"storage" toml:"storage"`
	HTTP      HTTPConfig    `json:"http" yaml:"http" toml:"http"`
}

// BackendConfig selects and tunes the inference backend.
type BackendConfig struct {
	// Kind is "openai" (vLLM and other OpenAI-compatible servers) or "ollama".
	Kind   string `json:"kind" yaml:"kind" toml:"kind"`
	URL    string `json:"url" yaml:"url" toml:"url"`
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`
	// TimeoutSeconds bounds a whole generate call.
	TimeoutSeconds        int `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	ConnectTimeoutSeconds int `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds" toml:"connect_timeout_seconds"`
	// BreakerFailures is the number of consecutive transport failures that
	// opens the circuit. Zero or negative disables the breaker.
	BreakerFailures    int `json:"breaker_failures" yaml:"breaker_failures" toml:"breaker_failures"`
	BreakerOpenSeconds int `json:"breaker_open_seconds" yaml:"breaker_open_seconds" toml:"breaker_open_seconds"`
}

// ModelsConfig configures the model registry.
type ModelsConfig struct {
	Default string `json:"default" yaml:"default" toml:"default"`
	// File is the bootstrap list. Relative paths resolve against DataDir.
	File string `json:"file" yaml:"file" toml:"file"`
	// Static, when set, replaces the bootstrap file entirely.
	Static []string `json:"static" yaml:"static" toml:"static"`
}

// StorageConfig configures the chat store.
type StorageConfig struct {
	Driver     string `json:"driver" yaml:"driver" toml:"driver"`
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path" toml:"sqlite_path"`
}

// HTTPConfig configures the HTTP layer.
type HTTPConfig struct {
	MaxBodyBytes    int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ShutdownSeconds int      `json:"shutdown_seconds" yaml:"shutdown_seconds" toml:"shutdown_seconds"`
	CORSDisabled    bool     `json:"cors_disabled" yaml:"cors_disabled" toml:"cors_disabled"`
	CORSOrigins     []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Default returns the configuration used when nothing else is specified.
// Backend.URL is left empty on purpose: Normalize picks it per backend kind.
func Default() Config {
	return Config{
		Addr:      DefaultAddr,
		DataDir:   DefaultDataDir,
		LogLevel:  "info",
		LogFormat: "console",
		Backend: BackendConfig{
			Kind:                  BackendOpenAI,
			TimeoutSeconds:        defaultTimeoutSec,
			ConnectTimeoutSeconds: defaultConnectSec,
			BreakerFailures:       defaultBreakerFails,
			BreakerOpenSeconds:    defaultBreakerOpen,
		},
		Models:  ModelsConfig{Default: DefaultModel, File: DefaultModelsFile},
		Storage: StorageConfig{Driver: DriverFile},
		HTTP: HTTPConfig{
			MaxBodyBytes:    defaultMaxBody,
			ShutdownSeconds: defaultShutdownSec,
			CORSOrigins:     []string{"*"},
		},
	}
}

// ApplyEnv overlays environment variables on cfg. getenv is usually os.Getenv.
// The legacy VLLM_URL, OLLAMA_URL and DEFAULT_MODEL variables are honored
// unless the CHATD_ equivalents are set.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	setStr := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setStr(&cfg.Addr, "CHATD_ADDR")
	setStr(&cfg.DataDir, "CHATD_DATA_DIR")
	setStr(&cfg.LogLevel, "CHATD_LOG_LEVEL")
	setStr(&cfg.LogFormat, "CHATD_LOG_FORMAT")
	setStr(&cfg.Backend.Kind, "CHATD_BACKEND")
	setStr(&cfg.Backend.APIKey, "CHATD_API_KEY")
	setStr(&cfg.Models.Default, "CHATD_DEFAULT_MODEL", "DEFAULT_MODEL")
	setStr(&cfg.Storage.Driver, "CHATD_STORAGE_DRIVER")

	setStr(&cfg.Backend.URL, "CHATD_BACKEND_URL")

	if v := strings.TrimSpace(getenv("CHATD_BACKEND_TIMEOUT_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHATD_BACKEND_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Backend.TimeoutSeconds = n
	}
	return nil
}

// ApplyLegacyURL sets the backend URL from VLLM_URL or OLLAMA_URL, whichever
// matches cfg.Backend.Kind. Call it once the backend kind is final; it does
// nothing when CHATD_BACKEND_URL is set.
func ApplyLegacyURL(cfg *Config, getenv func(string) string) {
	if strings.TrimSpace(getenv("CHATD_BACKEND_URL")) != "" {
		return
	}
	key := "VLLM_URL"
	if strings.EqualFold(strings.TrimSpace(cfg.Backend.Kind), BackendOllama) {
		key = "OLLAMA_URL"
	}
	if v := strings.TrimSpace(getenv(key)); v != "" {
		cfg.Backend.URL = v
	}
}

// Normalize fills derived defaults and validates cfg.
func (c Config) Normalize() (Config, error) {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	switch c.Backend.Kind {
	case "", BackendOpenAI, "vllm":
		c.Backend.Kind = BackendOpenAI
	case BackendOllama:
	default:
		return c, fmt.Errorf("unknown backend kind %q (want openai or ollama)", c.Backend.Kind)
	}
	if c.Backend.URL == "" {
		if c.Backend.Kind == BackendOllama {
			c.Backend.URL = DefaultOllamaURL
		} else {
			c.Backend.URL = DefaultOpenAIURL
		}
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultTimeoutSec
	}
	if c.Backend.ConnectTimeoutSeconds <= 0 {
		c.Backend.ConnectTimeoutSeconds = defaultConnectSec
	}
	if c.Backend.BreakerOpenSeconds <= 0 {
		c.Backend.BreakerOpenSeconds = defaultBreakerOpen
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "", DriverFile:
		c.Storage.Driver = DriverFile
	case DriverSQLite:
	default:
		return c, fmt.Errorf("unknown storage driver %q (want file or sqlite)", c.Storage.Driver)
	}

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	dir, err := fsutil.ExpandHome(c.DataDir)
	if err != nil {
		return c, err
	}
	c.DataDir = dir
	if c.Models.File == "" {
		c.Models.File = DefaultModelsFile
	}
	if c.Models.File, err = c.resolve(c.Models.File); err != nil {
		return c, err
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = DefaultSQLiteFile
	}
	if c.Storage.SQLitePath, err = c.resolve(c.Storage.SQLitePath); err != nil {
		return c, err
	}

	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = defaultMaxBody
	}
	if c.HTTP.ShutdownSeconds <= 0 {
		c.HTTP.ShutdownSeconds = defaultShutdownSec
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	return c, nil
}

func (c Config) resolve(p string) (string, error) {
	p, err := fsutil.ExpandHome(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(c.DataDir, p), nil
}

// Timeout returns the whole-request bound for backend calls.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ConnectTimeout returns the dial bound for backend calls.
func (b BackendConfig) ConnectTimeout() time.Duration {
	return time.Duration(b.ConnectTimeoutSeconds) * time.Second
}

// BreakerOpen returns how long an open circuit rejects calls.
func (b BackendConfig) BreakerOpen() time.Duration {
	return time.Duration(b.BreakerOpenSeconds) * time.Second
}
