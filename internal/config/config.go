// Package config provides configuration loading and structs for the kotae server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the chunk index, keyword index and query records.
// An IndexPath of ":memory:" keeps the chunk index in process memory.
type StorageConfig struct {
	IndexPath        string `yaml:"index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
	RecordsPath      string `yaml:"records_path"`
}

// EmbeddingConfig selects and configures the embedding service.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // ollama, openai, onnx, mock
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Dimensions        int     `yaml:"dimensions"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	CacheSize         int     `yaml:"cache_size"`
	ModelPath         string  `yaml:"model_path"`
	MaxTokens         int     `yaml:"max_tokens"`
}

// LLMConfig selects and configures the language model service.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, ollama, mock
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// IngestConfig holds document loading and chunking settings.
type IngestConfig struct {
	SourceDir     string   `yaml:"source_dir"`
	Extensions    []string `yaml:"extensions"`
	ChunkSize     int      `yaml:"chunk_size"`
	ChunkOverlap  int      `yaml:"chunk_overlap"`
	BatchSize     int      `yaml:"batch_size"`
	InsertWorkers int      `yaml:"insert_workers"`
}

// RetrievalConfig holds the retrieval gate settings. Exactly one policy is
// active. The gate always retrieves RetrievalTopK chunks. Nil thresholds take
// their defaults; an explicit 0 is kept.
type RetrievalConfig struct {
	Policy            string   `yaml:"policy"` // absolute, relative
	RelativeFactor    *float64 `yaml:"relative_factor"`
	AbsoluteThreshold *float64 `yaml:"absolute_threshold"`
	DistanceMetric    string   `yaml:"distance_metric"` // l2, cosine
}

// Float64 returns a pointer to v, for setting optional thresholds in code.
func Float64(v float64) *float64 { return &v }

// WatchConfig holds source directory watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	if cfg.Storage.IndexPath != MemoryIndexPath {
		cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	}
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Storage.RecordsPath = expandPath(cfg.Storage.RecordsPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Ingest.SourceDir = expandPath(cfg.Ingest.SourceDir, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings that defaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.Retrieval.Policy {
	case PolicyAbsolute, PolicyRelative:
	default:
		return fmt.Errorf("invalid retrieval policy %q (want %q or %q)", cfg.Retrieval.Policy, PolicyAbsolute, PolicyRelative)
	}
	if f := cfg.Retrieval.RelativeFactor; f != nil && *f <= 0 {
		return fmt.Errorf("relative_factor must be positive, got %v", *f)
	}
	if th := cfg.Retrieval.AbsoluteThreshold; th != nil && *th < 0 {
		return fmt.Errorf("absolute_threshold must not be negative, got %v", *th)
	}
	switch cfg.Retrieval.DistanceMetric {
	case MetricL2, MetricCosine:
	default:
		return fmt.Errorf("invalid distance metric %q", cfg.Retrieval.DistanceMetric)
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// Summary returns the settings reported by status endpoints and commands.
// Secrets and API key variable names are left out.
func (c *Config) Summary() map[string]any {
	s := map[string]any{
		"retrieval_policy":     c.Retrieval.Policy,
		"top_k":                RetrievalTopK,
		"distance_metric":      c.Retrieval.DistanceMetric,
		"embedding_provider":   c.Embedding.Provider,
		"embedding_dimensions": c.Embedding.Dimensions,
		"llm_provider":         c.LLM.Provider,
		"chunk_size":           c.Ingest.ChunkSize,
		"chunk_overlap":        c.Ingest.ChunkOverlap,
		"source_dir":           c.Ingest.SourceDir,
		"watch_enabled":        c.Watch.Enabled,
	}
	if c.Retrieval.RelativeFactor != nil {
		s["relative_factor"] = *c.Retrieval.RelativeFactor
	}
	if c.Retrieval.AbsoluteThreshold != nil {
		s["absolute_threshold"] = *c.Retrieval.AbsoluteThreshold
	}
	return s
}
