// Package config holds runtime configuration for transdoc.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// LLM backend
	LLMProvider     string `yaml:"provider"`
	LLMModel        string `yaml:"model"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	OllamaHost      string `yaml:"ollama_host"`
	MaxAttempts     int    `yaml:"max_attempts"`

	// Translation
	SourceDir       string   `yaml:"source_dir"`
	TargetDir       string   `yaml:"target_dir"`
	Locales         []string `yaml:"locales"`
	Fields          []string `yaml:"fields"`
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`
	Parallelism     int      `yaml:"parallelism"`
	ChunkSize       int      `yaml:"chunk_size"`
	ChunkTolerance  float64  `yaml:"chunk_tolerance"`
	RevisionField   string   `yaml:"revision_field"`
	InstructionFile string   `yaml:"instruction_file"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from environment variables, then overlays the
// YAML config file at path (if non-empty and present). Flags are applied on
// top by the CLI layer.
func Load(path string) (Config, error) {
	cfg := Config{
		LLMProvider:     getEnv("TRANSDOC_PROVIDER", ProviderOpenAI),
		LLMModel:        getEnv("TRANSDOC_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		MaxAttempts:     getEnvInt("TRANSDOC_MAX_ATTEMPTS", 3),

		SourceDir:       getEnv("TRANSDOC_SOURCE_DIR", "."),
		TargetDir:       getEnv("TRANSDOC_TARGET_DIR", ""),
		Parallelism:     getEnvInt("TRANSDOC_PARALLELISM", 4),
		ChunkSize:       getEnvInt("TRANSDOC_CHUNK_SIZE", 32*1024),
		ChunkTolerance:  0.2,
		RevisionField:   "source_revision",
		InstructionFile: ".translation-instructions.md",

		LogFile:  getEnv("TRANSDOC_LOG_FILE", "/tmp/transdoc.log"),
		LogLevel: parseLogLevel(getEnv("TRANSDOC_LOG_LEVEL", "INFO")),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate checks knobs that have hard constraints.
func (c Config) Validate() error {
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkTolerance <= 0 {
		return fmt.Errorf("chunk tolerance must be positive, got %g", c.ChunkTolerance)
	}
	if len(c.Locales) == 0 {
		return fmt.Errorf("at least one target locale is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
