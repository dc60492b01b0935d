package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cterrors "github.com/codeturtle/codeturtle/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CODETURTLE_INDEX_NAME", "code-turtle")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.ScanPath)
	assert.Equal(t, DefaultChunkSize, cfg.Chunking.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, DefaultBatchSize, cfg.Embeddings.BatchSize)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
index:
  name: code-turtle
  create_if_missing: true
embeddings:
  provider: static
  dimensions: 256
  batch_size: 50
chunking:
  chunk_size: 1024
  chunk_overlap: 128
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "code-turtle", cfg.Index.Name)
	assert.True(t, cfg.Index.CreateIfMissing)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 256, cfg.Embeddings.Dimensions)
	assert.Equal(t, 50, cfg.Embeddings.BatchSize)
	assert.Equal(t, 1024, cfg.Chunking.ChunkSize)
	assert.Equal(t, 128, cfg.Chunking.ChunkOverlap)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
index:
  name: from-file
chunking:
  chunk_size: 256
`)
	t.Setenv("CODETURTLE_INDEX_NAME", "from-env")
	t.Setenv("CODETURTLE_CHUNK_SIZE", "2048")
	t.Setenv("CODETURTLE_UPSERT_FILE_LIST", "changed.txt")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Index.Name)
	assert.Equal(t, 2048, cfg.Chunking.ChunkSize)
	assert.Equal(t, "changed.txt", cfg.UpsertFileList)
	assert.True(t, cfg.Targeted())
}

func TestLoad_MissingIndexNameIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.True(t, cterrors.IsFatal(err))
	assert.Equal(t, cterrors.ErrCodeIndexNameMissing, cterrors.GetCode(err))
}

func TestValidate_ChunkGeometry(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid defaults", 512, 64, false},
		{"overlap equals size", 512, 512, true},
		{"overlap exceeds size", 64, 512, true},
		{"zero size", 0, 0, true},
		{"negative overlap", 512, -1, true},
		{"zero overlap is fine", 512, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Index.Name = "code-turtle"
			cfg.Chunking.ChunkSize = tt.size
			cfg.Chunking.ChunkOverlap = tt.overlap

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, cterrors.ErrCodeChunkGeometry, cterrors.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.Index.Name = "code-turtle"
	cfg.Embeddings.Provider = "openai"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, cterrors.IsFatal(err))
}

func TestTargeted(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Targeted())

	cfg.DeleteFileList = "deleted.txt"
	assert.True(t, cfg.Targeted())
}
