package config

// Chunking defaults.
const (
	DefaultMaxTokens         = 1000
	DefaultSoftTokenLimit    = 800
	DefaultMinChunkSize      = 100
	DefaultOverlapPercentage = 0.05
	DefaultMinOverlapTokens  = 50
	DefaultMaxOverlapTokens  = 100
)

// DefaultChunking returns a ChunkingConfig with every default applied.
func DefaultChunking() ChunkingConfig {
	c := ChunkingConfig{}
	applyChunkingDefaults(&c)
	return c
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	applyChunkingDefaults(&cfg.Chunking)
	if cfg.Tokenizer.Encoding == "" {
		cfg.Tokenizer.Encoding = "cl100k_base"
	}
	if cfg.Tokenizer.CacheSize == 0 {
		cfg.Tokenizer.CacheSize = 4096
	}
	if cfg.Output.ChunksPath == "" {
		cfg.Output.ChunksPath = "./output/chunks.json"
	}
	if cfg.Output.DiagnosticsPath == "" {
		cfg.Output.DiagnosticsPath = "./output/chunk_diagnostics.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mdchunk/data/chunks.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/mdchunk/data/bleve"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".md"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// applyChunkingDefaults fills zero values only; an explicit overlap_percentage of 0
// is indistinguishable from unset and falls back to the default.
func applyChunkingDefaults(c *ChunkingConfig) {
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.SoftTokenLimit == 0 {
		c.SoftTokenLimit = DefaultSoftTokenLimit
		if c.SoftTokenLimit > c.MaxTokens {
			c.SoftTokenLimit = c.MaxTokens
		}
	}
	if c.MinChunkSize == 0 {
		c.MinChunkSize = DefaultMinChunkSize
		if c.MinChunkSize > c.MaxTokens {
			c.MinChunkSize = c.MaxTokens
		}
	}
	if c.OverlapPercentage == 0 {
		c.OverlapPercentage = DefaultOverlapPercentage
	}
	if c.MinOverlapTokens == 0 {
		c.MinOverlapTokens = DefaultMinOverlapTokens
	}
	if c.MaxOverlapTokens == 0 {
		c.MaxOverlapTokens = DefaultMaxOverlapTokens
	}
	if c.MinOverlapTokens > c.MaxOverlapTokens {
		c.MaxOverlapTokens = c.MinOverlapTokens
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}
