// Package config loads and validates the codeturtle run configuration.
// Settings come from an optional .codeturtle.yaml file with CODETURTLE_*
// environment overrides on top. The resulting Config is built once per run
// and treated as immutable by every component it is passed to.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	cterrors "github.com/codeturtle/codeturtle/internal/errors"
)

// ConfigFileName is the project-local configuration file name.
const ConfigFileName = ".codeturtle.yaml"

// Embedding provider names.
const (
	ProviderOllama = "ollama"
	ProviderStatic = "static"
)

// Defaults for the sync pipeline.
const (
	DefaultBatchSize     = 100
	DefaultChunkSize     = 512
	DefaultChunkOverlap  = 64
	DefaultIndexDir      = ".codeturtle"
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultOllamaModel   = "all-minilm"
	DefaultWatchDebounce = "500ms"
)

// Config is the complete codeturtle configuration.
type Config struct {
	// ScanPath is the root for full-tree scans (default ".").
	ScanPath string `yaml:"scan_path"`

	// UpsertFileList is an optional path to a newline-delimited list of
	// repository-relative paths to upsert. Presence selects targeted mode.
	UpsertFileList string `yaml:"upsert_file_list"`

	// DeleteFileList is an optional path to a newline-delimited list of
	// paths to purge from the index.
	DeleteFileList string `yaml:"delete_file_list"`

	Index      IndexConfig      `yaml:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Log        LogConfig        `yaml:"log"`
	Watch      WatchConfig      `yaml:"watch"`
}

// IndexConfig identifies the target vector index.
type IndexConfig struct {
	// Name is the target collection name. Required; there is no degraded
	// mode without an index.
	Name string `yaml:"name"`

	// Path is the directory holding index data (default ".codeturtle").
	Path string `yaml:"path"`

	// CreateIfMissing creates the collection on first open. When false,
	// a missing collection is a fatal startup error.
	CreateIfMissing bool `yaml:"create_if_missing"`
}

// EmbeddingsConfig configures the embedding collaborator.
type EmbeddingsConfig struct {
	// Provider selects the embedder backend: "ollama" or "static".
	Provider string `yaml:"provider"`

	// Model is the embedding model identifier.
	Model string `yaml:"model"`

	// Dimensions is the expected embedding dimension. Zero means detect
	// from the provider; a mismatch with a stored index is fatal.
	Dimensions int `yaml:"dimensions"`

	// BatchSize is the number of chunks embedded and upserted per batch.
	BatchSize int `yaml:"batch_size"`

	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`
}

// ChunkingConfig configures the chunker geometry.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkOverlap is the number of characters carried between
	// consecutive chunks. Must be smaller than ChunkSize.
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// WatchConfig configures continuous sync mode.
type WatchConfig struct {
	// Debounce is the window for coalescing file events (e.g. "500ms").
	Debounce string `yaml:"debounce"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ScanPath: ".",
		Index: IndexConfig{
			Path: DefaultIndexDir,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   ProviderOllama,
			Model:      DefaultOllamaModel,
			BatchSize:  DefaultBatchSize,
			OllamaHost: DefaultOllamaHost,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
	}
}

// Load reads configuration from path (or ConfigFileName when empty),
// applies environment overrides, and validates the result. A missing
// config file is not an error; environment and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, cterrors.ConfigError(fmt.Sprintf("parse %s", path), err)
		}
	case os.IsNotExist(err):
		// Defaults + env only.
	default:
		return nil, cterrors.ConfigError(fmt.Sprintf("read %s", path), err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies CODETURTLE_* environment variables on top of
// file values. Environment always wins; this is how the CI orchestrator
// points one binary at different change lists per run.
func (c *Config) applyEnvOverrides() {
	setString(&c.ScanPath, "CODETURTLE_SCAN_PATH")
	setString(&c.UpsertFileList, "CODETURTLE_UPSERT_FILE_LIST")
	setString(&c.DeleteFileList, "CODETURTLE_DELETE_FILE_LIST")
	setString(&c.Index.Name, "CODETURTLE_INDEX_NAME")
	setString(&c.Index.Path, "CODETURTLE_INDEX_PATH")
	setBool(&c.Index.CreateIfMissing, "CODETURTLE_INDEX_CREATE")
	setString(&c.Embeddings.Provider, "CODETURTLE_EMBED_PROVIDER")
	setString(&c.Embeddings.Model, "CODETURTLE_EMBED_MODEL")
	setInt(&c.Embeddings.Dimensions, "CODETURTLE_EMBED_DIMENSIONS")
	setInt(&c.Embeddings.BatchSize, "CODETURTLE_BATCH_SIZE")
	setString(&c.Embeddings.OllamaHost, "CODETURTLE_OLLAMA_HOST")
	setInt(&c.Chunking.ChunkSize, "CODETURTLE_CHUNK_SIZE")
	setInt(&c.Chunking.ChunkOverlap, "CODETURTLE_CHUNK_OVERLAP")
	setString(&c.Log.Level, "CODETURTLE_LOG_LEVEL")
	setString(&c.Log.File, "CODETURTLE_LOG_FILE")
}

// Validate checks the configuration for fatal errors. It runs before any
// store mutation is attempted.
func (c *Config) Validate() error {
	if c.Index.Name == "" {
		return cterrors.New(cterrors.ErrCodeIndexNameMissing,
			"index name is required (set index.name or CODETURTLE_INDEX_NAME)", nil)
	}
	if c.Index.Path == "" {
		return cterrors.ConfigError("index path must not be empty", nil)
	}

	if c.Chunking.ChunkSize <= 0 {
		return cterrors.New(cterrors.ErrCodeChunkGeometry,
			fmt.Sprintf("chunk_size must be positive, got %d", c.Chunking.ChunkSize), nil)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return cterrors.New(cterrors.ErrCodeChunkGeometry,
			fmt.Sprintf("chunk_overlap must not be negative, got %d", c.Chunking.ChunkOverlap), nil)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return cterrors.New(cterrors.ErrCodeChunkGeometry,
			fmt.Sprintf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
				c.Chunking.ChunkOverlap, c.Chunking.ChunkSize), nil)
	}

	if c.Embeddings.BatchSize <= 0 {
		return cterrors.ConfigError(
			fmt.Sprintf("batch_size must be positive, got %d", c.Embeddings.BatchSize), nil)
	}
	if c.Embeddings.Dimensions < 0 {
		return cterrors.ConfigError(
			fmt.Sprintf("dimensions must not be negative, got %d", c.Embeddings.Dimensions), nil)
	}

	switch c.Embeddings.Provider {
	case ProviderOllama, ProviderStatic:
	default:
		return cterrors.ConfigError(
			fmt.Sprintf("unknown embeddings provider %q (want ollama or static)", c.Embeddings.Provider), nil)
	}

	return nil
}

// Targeted reports whether this configuration selects targeted mode.
func (c *Config) Targeted() bool {
	return c.UpsertFileList != "" || c.DeleteFileList != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
