// Package config provides configuration loading and structs for mdchunk.
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
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Output    OutputConfig    `yaml:"output"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ChunkingConfig holds the token bounds and overlap settings of the chunker.
type ChunkingConfig struct {
	MaxTokens         int     `yaml:"max_tokens"`
	SoftTokenLimit    int     `yaml:"soft_token_limit"`
	MinChunkSize      int     `yaml:"min_chunk_size"`
	OverlapPercentage float64 `yaml:"overlap_percentage"`
	MinOverlapTokens  int     `yaml:"min_overlap_tokens"`
	MaxOverlapTokens  int     `yaml:"max_overlap_tokens"`
	// OverlapAcrossPages lets the first chunk of a page take overlap from the
	// last chunk of the previous page. Defaults to true when unset.
	OverlapAcrossPages *bool `yaml:"overlap_across_pages"`
	// Workers is the number of pages chunked concurrently.
	Workers int `yaml:"workers"`
}

// OverlapAcrossPagesOrDefault returns whether overlap crosses page boundaries; defaults to true when unset.
func (c *ChunkingConfig) OverlapAcrossPagesOrDefault() bool {
	if c.OverlapAcrossPages != nil {
		return *c.OverlapAcrossPages
	}
	return true
}

// Validate rejects bounds the chunker cannot honor.
func (c *ChunkingConfig) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.SoftTokenLimit <= 0 || c.SoftTokenLimit > c.MaxTokens {
		return fmt.Errorf("soft_token_limit must be in (0, max_tokens], got %d", c.SoftTokenLimit)
	}
	if c.MinChunkSize < 0 || c.MinChunkSize > c.MaxTokens {
		return fmt.Errorf("min_chunk_size must be in [0, max_tokens], got %d", c.MinChunkSize)
	}
	if c.OverlapPercentage < 0 || c.OverlapPercentage > 1 {
		return fmt.Errorf("overlap_percentage must be in [0, 1], got %g", c.OverlapPercentage)
	}
	if c.MinOverlapTokens < 0 || c.MaxOverlapTokens < 0 {
		return fmt.Errorf("overlap token bounds cannot be negative")
	}
	if c.MinOverlapTokens > c.MaxOverlapTokens {
		return fmt.Errorf("min_overlap_tokens (%d) exceeds max_overlap_tokens (%d)", c.MinOverlapTokens, c.MaxOverlapTokens)
	}
	return nil
}

// TokenizerConfig selects the tokenizer used for length measurement.
type TokenizerConfig struct {
	// Encoding is a tiktoken encoding or model name, or "word" for the
	// deterministic whitespace tokenizer.
	Encoding  string `yaml:"encoding"`
	CacheSize int    `yaml:"cache_size"`
}

// OutputConfig holds paths of the files a run writes.
type OutputConfig struct {
	ChunksPath      string `yaml:"chunks_path"`
	DiagnosticsPath string `yaml:"diagnostics_path"`
}

// StorageConfig holds paths for the chunk database and keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or if the chunking bounds are invalid.
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
	if err := cfg.Chunking.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	configDir := filepath.Dir(path)
	cfg.Output.ChunksPath = expandPath(cfg.Output.ChunksPath, configDir)
	cfg.Output.DiagnosticsPath = expandPath(cfg.Output.DiagnosticsPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

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
